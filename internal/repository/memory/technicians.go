package memory

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type technicianRepo struct{ s *Store }

func (r technicianRepo) List(_ context.Context) ([]domain.Technician, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.technicians(), nil
}

func (r technicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, tech := range r.s.technicians() {
		if tech.ID == id {
			return &tech, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r technicianRepo) UpdateAvailability(_ context.Context, id string, slots []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[id]
	if !ok || account.Role != domain.RoleTechnician {
		return pgx.ErrNoRows
	}
	account.Availability = append([]string(nil), slots...)
	account.UpdatedAt = r.s.now()
	return nil
}

func (r technicianRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[id]
	if !ok || account.Role != domain.RoleTechnician {
		return pgx.ErrNoRows
	}
	for _, rec := range r.s.tickets {
		if rec.ticket.TechnicianID == id || rec.ticket.ClientID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.accounts, id)
	for i, accountID := range r.s.accountOrder {
		if accountID == id {
			r.s.accountOrder = append(r.s.accountOrder[:i], r.s.accountOrder[i+1:]...)
			break
		}
	}
	return nil
}

// technicians returns the directory in creation order with open loads. mu must be held.
func (s *Store) technicians() []domain.Technician {
	loads := make(map[string]int)
	for _, rec := range s.tickets {
		if rec.ticket.Status.CountsTowardLoad() {
			loads[rec.ticket.TechnicianID]++
		}
	}

	result := []domain.Technician{}
	for _, id := range s.accountOrder {
		account := s.accounts[id]
		if account.Role != domain.RoleTechnician {
			continue
		}
		result = append(result, domain.Technician{Account: *cloneAccount(account), OpenLoad: loads[id]})
	}
	return result
}
