package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type serviceRepo struct{ s *Store }

func (r serviceRepo) Create(_ context.Context, svc *domain.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.insertService(svc)
	return nil
}

func (r serviceRepo) Update(_ context.Context, svc *domain.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.services[svc.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = svc.Title
	stored.Price = svc.Price
	stored.UpdatedAt = r.s.now()
	svc.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r serviceRepo) GetByID(_ context.Context, id string) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	svc, ok := r.s.services[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *svc
	return &c, nil
}

func (r serviceRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []domain.Service{}
	for _, id := range ids {
		if svc, ok := r.s.services[id]; ok {
			result = append(result, *svc)
		}
	}
	return result, nil
}

func (r serviceRepo) List(_ context.Context, activeOnly bool) ([]domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []domain.Service{}
	for _, svc := range r.s.services {
		if activeOnly && !svc.Active {
			continue
		}
		result = append(result, *svc)
	}
	slices.SortFunc(result, func(a, b domain.Service) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (r serviceRepo) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	svc, ok := r.s.services[id]
	if !ok {
		return pgx.ErrNoRows
	}
	svc.Active = active
	svc.UpdatedAt = r.s.now()
	return nil
}

func (r serviceRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[id]; !ok {
		return pgx.ErrNoRows
	}
	r.s.deleteService(id)
	return nil
}

func (r serviceRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.services), nil
}

// insertService must be called with mu held.
func (s *Store) insertService(svc *domain.Service) {
	now := s.now()
	svc.ID = newID()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	c := *svc
	s.services[svc.ID] = &c
}

// deleteService drops the record and its ticket associations. mu must be held.
func (s *Store) deleteService(id string) {
	delete(s.services, id)
	for _, rec := range s.tickets {
		rec.serviceIDs = slices.DeleteFunc(rec.serviceIDs, func(sid string) bool { return sid == id })
	}
}

// serviceHeld reports whether any ticket still lists id. mu must be held.
func (s *Store) serviceHeld(id string) bool {
	for _, rec := range s.tickets {
		if slices.Contains(rec.serviceIDs, id) {
			return true
		}
	}
	return false
}
