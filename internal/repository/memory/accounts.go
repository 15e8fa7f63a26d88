package memory

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type accountRepo struct{ s *Store }

func (r accountRepo) Create(_ context.Context, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(account.Email)
	for _, existing := range r.s.accounts {
		if existing.Email == email {
			return repository.ErrDuplicate
		}
	}

	now := r.s.now()
	account.ID = newID()
	account.Email = email
	account.CreatedAt = now
	account.UpdatedAt = now
	stored := cloneAccount(account)
	r.s.accounts[account.ID] = stored
	r.s.accountOrder = append(r.s.accountOrder, account.ID)
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneAccount(account), nil
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email = strings.ToLower(email)
	for _, account := range r.s.accounts {
		if account.Email == email {
			return cloneAccount(account), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r accountRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = r.s.now()
	return nil
}

func (r accountRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, account := range r.s.accounts {
		if account.Role == role {
			count++
		}
	}
	return count, nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.Availability = append([]string(nil), a.Availability...)
	if a.PhotoURL != nil {
		url := *a.PhotoURL
		c.PhotoURL = &url
	}
	return &c
}
