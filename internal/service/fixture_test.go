package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

type fixture struct {
	store      *memory.Store
	dispatcher events.Dispatcher
	published  []events.Event
	tickets    *TicketService
	techs      *TechnicianService
	catalog    *CatalogService
	auth       *AuthService
	admin      domain.Caller
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), dispatcher: events.NewInMemoryDispatcher()}
	record := func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	}
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventTicketStatusChanged, events.EventTicketServiceAdded, events.EventTicketServiceRemoved} {
		f.dispatcher.Subscribe(et, record)
	}

	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:  f.store.Tickets(),
		ServiceRepo: f.store.Services(),
		HistoryRepo: f.store.History(),
		Dispatcher:  f.dispatcher,
	})
	f.techs = NewTechnicianService(testConfig(), TechnicianDependencies{
		AccountRepo:    f.store.Accounts(),
		TechnicianRepo: f.store.Technicians(),
		TicketRepo:     f.store.Tickets(),
	})
	f.catalog = NewCatalogService(CatalogDependencies{ServiceRepo: f.store.Services(), TicketRepo: f.store.Tickets()})
	f.auth = NewAuthService(testConfig(), AuthDependencies{AccountRepo: f.store.Accounts()})
	f.admin = f.account(t, "admin@x.com", domain.RoleAdmin)
	return f
}

func (f *fixture) account(t *testing.T, email string, role domain.Role, slots ...string) domain.Caller {
	t.Helper()
	a := &domain.Account{Name: email, Email: email, PasswordHash: "x", Role: role, Availability: slots}
	if err := f.store.Accounts().Create(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return domain.Caller{ID: a.ID, Role: role}
}

func (f *fixture) service(t *testing.T, title string, price domain.Cents) *domain.Service {
	t.Helper()
	svc := &domain.Service{Title: title, Price: price, Active: true, IsDefault: true}
	if err := f.store.Services().Create(context.Background(), svc); err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

// seedTicket stores a ticket assigned to technicianID regardless of load.
func (f *fixture) seedTicket(t *testing.T, clientID, technicianID string, status domain.TicketStatus) string {
	t.Helper()
	ticket := &domain.Ticket{Title: "Seeded ticket", Description: "d", Category: "c", Status: status, ClientID: clientID}
	pick := func(candidates []domain.Technician) (domain.Technician, error) {
		for _, c := range candidates {
			if c.ID == technicianID {
				return c, nil
			}
		}
		t.Fatalf("technician %s not in directory", technicianID)
		return domain.Technician{}, nil
	}
	if err := f.store.Tickets().CreateAssigned(context.Background(), ticket, nil, pick); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket.ID
}

func (f *fixture) create(t *testing.T, client domain.Caller, serviceIDs ...string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), client, TicketCreateInput{
		Title:       "Computer not booting",
		Description: "Black screen after the logo",
		ServiceIDs:  serviceIDs,
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}
