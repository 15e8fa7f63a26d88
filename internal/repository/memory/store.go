// Package memory provides in-process implementations of the repository
// interfaces. The API falls back to it when no database is configured and
// service tests run against it.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Store holds every table behind one mutex, so multi-row operations such as
// ticket creation are atomic with respect to each other.
type Store struct {
	mu    sync.Mutex
	clock func() time.Time
	last  time.Time

	accounts     map[string]*domain.Account
	accountOrder []string
	services     map[string]*domain.Service
	tickets      map[string]*ticketRecord
	ticketOrder  []string
	history      []domain.TicketHistory
}

type ticketRecord struct {
	ticket     domain.Ticket
	serviceIDs []string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source. Timestamps stay strictly increasing.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clock:    time.Now,
		accounts: make(map[string]*domain.Account),
		services: make(map[string]*domain.Service),
		tickets:  make(map[string]*ticketRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accounts exposes the account table.
func (s *Store) Accounts() repository.AccountRepository { return accountRepo{s} }

// Technicians exposes the technician directory.
func (s *Store) Technicians() repository.TechnicianRepository { return technicianRepo{s} }

// Services exposes the service catalog.
func (s *Store) Services() repository.ServiceRepository { return serviceRepo{s} }

// Tickets exposes ticket persistence.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// History exposes the ticket audit trail.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

// now must be called with mu held.
func (s *Store) now() time.Time {
	t := s.clock().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newID() string {
	return uuid.NewString()
}

// Set bundles the store's repositories.
func (s *Store) Set() repository.Set {
	return repository.Set{
		Accounts:    s.Accounts(),
		Technicians: s.Technicians(),
		Services:    s.Services(),
		Tickets:     s.Tickets(),
		History:     s.History(),
	}
}
