package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r ticketRepo) CreateAssigned(_ context.Context, ticket *domain.Ticket, serviceIDs []string, assign repository.AssignFunc) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chosen, err := assign(r.s.technicians())
	if err != nil {
		return err
	}

	now := r.s.now()
	ticket.ID = newID()
	ticket.TechnicianID = chosen.ID
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	rec := &ticketRecord{ticket: *ticket}
	rec.ticket.Services = nil
	rec.ticket.Client = nil
	rec.ticket.Technician = nil
	r.s.tickets[ticket.ID] = rec
	r.s.ticketOrder = append(r.s.ticketOrder, ticket.ID)
	r.s.attach(rec, serviceIDs)
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket := r.s.hydrate(rec)
	return &ticket, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []domain.Ticket{}
	for _, id := range r.s.ticketOrder {
		rec := r.s.tickets[id]
		if filter.ClientID != nil && rec.ticket.ClientID != *filter.ClientID {
			continue
		}
		if filter.TechnicianID != nil && rec.ticket.TechnicianID != *filter.TechnicianID {
			continue
		}
		result = append(result, r.s.hydrate(rec))
	}
	slices.SortFunc(result, func(a, b domain.Ticket) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return result, nil
}

func (r ticketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	rec.ticket.Status = status
	rec.ticket.UpdatedAt = r.s.now()
	return nil
}

func (r ticketRepo) AttachServices(_ context.Context, ticketID string, serviceIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.s.attach(rec, serviceIDs)
	rec.ticket.UpdatedAt = r.s.now()
	return nil
}

func (r ticketRepo) AttachNewService(_ context.Context, ticketID string, svc *domain.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.s.insertService(svc)
	r.s.attach(rec, []string{svc.ID})
	rec.ticket.UpdatedAt = r.s.now()
	return nil
}

func (r ticketRepo) DetachService(_ context.Context, ticketID, serviceID string, purge bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tickets[ticketID]
	if !ok || !slices.Contains(rec.serviceIDs, serviceID) {
		return pgx.ErrNoRows
	}
	rec.serviceIDs = slices.DeleteFunc(rec.serviceIDs, func(id string) bool { return id == serviceID })
	if purge && !r.s.serviceHeld(serviceID) {
		r.s.deleteService(serviceID)
	}
	rec.ticket.UpdatedAt = r.s.now()
	return nil
}

func (r ticketRepo) TicketIDsByService(_ context.Context, serviceID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := []string{}
	for _, id := range r.s.ticketOrder {
		if slices.Contains(r.s.tickets[id].serviceIDs, serviceID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r ticketRepo) CountByTechnician(_ context.Context, technicianID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, rec := range r.s.tickets {
		if rec.ticket.TechnicianID == technicianID {
			count++
		}
	}
	return count, nil
}

// attach appends known, not yet attached services. mu must be held.
func (s *Store) attach(rec *ticketRecord, serviceIDs []string) {
	for _, id := range serviceIDs {
		if _, ok := s.services[id]; !ok || slices.Contains(rec.serviceIDs, id) {
			continue
		}
		rec.serviceIDs = append(rec.serviceIDs, id)
	}
}

// hydrate joins services and profiles onto a copy of the ticket. mu must be held.
func (s *Store) hydrate(rec *ticketRecord) domain.Ticket {
	ticket := rec.ticket
	ticket.Services = make([]domain.Service, 0, len(rec.serviceIDs))
	for _, id := range rec.serviceIDs {
		if svc, ok := s.services[id]; ok {
			ticket.Services = append(ticket.Services, *svc)
		}
	}
	if client, ok := s.accounts[ticket.ClientID]; ok {
		profile := cloneAccount(client).Profile()
		ticket.Client = &profile
	}
	if tech, ok := s.accounts[ticket.TechnicianID]; ok {
		profile := cloneAccount(tech).Profile()
		ticket.Technician = &profile
	}
	return ticket
}
