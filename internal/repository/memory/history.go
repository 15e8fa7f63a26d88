package memory

import (
	"context"
	"maps"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	history.ID = newID()
	history.CreatedAt = r.s.now()
	entry := *history
	entry.OldValue = maps.Clone(history.OldValue)
	entry.NewValue = maps.Clone(history.NewValue)
	r.s.history = append(r.s.history, entry)
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := []domain.TicketHistory{}
	for _, entry := range r.s.history {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}
