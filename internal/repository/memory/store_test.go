package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func seedAccount(t *testing.T, s *Store, email string, role domain.Role, slots ...string) *domain.Account {
	t.Helper()
	account := &domain.Account{Name: email, Email: email, PasswordHash: "x", Role: role, Availability: slots}
	if err := s.Accounts().Create(context.Background(), account); err != nil {
		t.Fatalf("create account %s: %v", email, err)
	}
	return account
}

func seedService(t *testing.T, s *Store, title string, price domain.Cents) *domain.Service {
	t.Helper()
	svc := &domain.Service{Title: title, Price: price, Active: true, IsDefault: true}
	if err := s.Services().Create(context.Background(), svc); err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

func pickFirst(candidates []domain.Technician) (domain.Technician, error) {
	if len(candidates) == 0 {
		return domain.Technician{}, errors.New("empty")
	}
	return candidates[0], nil
}

func TestClockIsStrictlyIncreasing(t *testing.T) {
	s := NewStore(WithClock(fixedClock()))
	a := seedAccount(t, s, "a@x.com", domain.RoleClient)
	b := seedAccount(t, s, "b@x.com", domain.RoleClient)
	if !b.CreatedAt.After(a.CreatedAt) {
		t.Fatalf("expected %v after %v", b.CreatedAt, a.CreatedAt)
	}
}

func TestAccountEmailIsUniqueCaseInsensitive(t *testing.T) {
	s := NewStore()
	seedAccount(t, s, "Ana@X.com", domain.RoleClient)

	err := s.Accounts().Create(context.Background(), &domain.Account{Email: "ana@x.com", Role: domain.RoleClient})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	got, err := s.Accounts().GetByEmail(context.Background(), "ANA@x.com")
	if err != nil || got.Email != "ana@x.com" {
		t.Fatalf("lookup by email: %v %+v", err, got)
	}
}

func TestTechnicianLoadsFollowStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	client := seedAccount(t, s, "c@x.com", domain.RoleClient)
	tech := seedAccount(t, s, "t@x.com", domain.RoleTechnician, "08:00")

	ticket := &domain.Ticket{Title: "Broken laptop", Status: domain.TicketStatusOpen, ClientID: client.ID}
	if err := s.Tickets().CreateAssigned(ctx, ticket, nil, pickFirst); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.TechnicianID != tech.ID {
		t.Fatalf("technician = %s, want %s", ticket.TechnicianID, tech.ID)
	}

	got, _ := s.Technicians().GetByID(ctx, tech.ID)
	if got.OpenLoad != 1 {
		t.Fatalf("load = %d, want 1", got.OpenLoad)
	}

	if err := s.Tickets().UpdateStatus(ctx, ticket.ID, domain.TicketStatusClosed); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ = s.Technicians().GetByID(ctx, tech.ID)
	if got.OpenLoad != 0 {
		t.Fatalf("load after close = %d, want 0", got.OpenLoad)
	}
}

func TestCreateAssignedWritesNothingWhenAssignFails(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	client := seedAccount(t, s, "c@x.com", domain.RoleClient)

	err := s.Tickets().CreateAssigned(ctx, &domain.Ticket{Title: "Printer jam", ClientID: client.ID}, nil, pickFirst)
	if err == nil {
		t.Fatal("expected error")
	}
	tickets, _ := s.Tickets().List(ctx, repository.TicketFilter{})
	if len(tickets) != 0 {
		t.Fatalf("expected no tickets, got %d", len(tickets))
	}
}

func TestTicketServicesKeepAttachOrderAndDetachPurges(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	client := seedAccount(t, s, "c@x.com", domain.RoleClient)
	seedAccount(t, s, "t@x.com", domain.RoleTechnician, "08:00")
	a := seedService(t, s, "Formatting", 10000)
	b := seedService(t, s, "Backup", 5000)

	ticket := &domain.Ticket{Title: "Slow computer", Status: domain.TicketStatusOpen, ClientID: client.ID}
	if err := s.Tickets().CreateAssigned(ctx, ticket, []string{b.ID, a.ID, b.ID}, pickFirst); err != nil {
		t.Fatalf("create: %v", err)
	}

	extra := &domain.Service{Title: "Cable replacement", Price: 2490, Active: true}
	if err := s.Tickets().AttachNewService(ctx, ticket.ID, extra); err != nil {
		t.Fatalf("attach new: %v", err)
	}

	got, err := s.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Services) != 3 || got.Services[0].ID != b.ID || got.Services[1].ID != a.ID || got.Services[2].ID != extra.ID {
		t.Fatalf("unexpected services order: %+v", got.Services)
	}
	if got.TotalPrice() != 17490 {
		t.Fatalf("total = %d, want 17490", got.TotalPrice())
	}
	if got.Client == nil || got.Client.Email != "c@x.com" {
		t.Fatalf("client profile not joined: %+v", got.Client)
	}

	if err := s.Tickets().DetachService(ctx, ticket.ID, extra.ID, true); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if _, err := s.Services().GetByID(ctx, extra.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected purged service, got %v", err)
	}
	if err := s.Tickets().DetachService(ctx, ticket.ID, extra.ID, false); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("second detach should report ErrNoRows, got %v", err)
	}
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithClock(fixedClock()))
	c1 := seedAccount(t, s, "c1@x.com", domain.RoleClient)
	c2 := seedAccount(t, s, "c2@x.com", domain.RoleClient)
	seedAccount(t, s, "t@x.com", domain.RoleTechnician, "08:00")

	var ids []string
	for _, clientID := range []string{c1.ID, c2.ID, c1.ID} {
		ticket := &domain.Ticket{Title: "Network down", Status: domain.TicketStatusOpen, ClientID: clientID}
		if err := s.Tickets().CreateAssigned(ctx, ticket, nil, pickFirst); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, ticket.ID)
	}

	all, _ := s.Tickets().List(ctx, repository.TicketFilter{})
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("unexpected order: %v", all)
	}

	own, _ := s.Tickets().List(ctx, repository.TicketFilter{ClientID: &c1.ID})
	if len(own) != 2 || own[0].ID != ids[2] || own[1].ID != ids[0] {
		t.Fatalf("unexpected client listing: %v", own)
	}
}

func TestTechnicianDeleteReferenced(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	client := seedAccount(t, s, "c@x.com", domain.RoleClient)
	busy := seedAccount(t, s, "busy@x.com", domain.RoleTechnician, "08:00")
	idle := seedAccount(t, s, "idle@x.com", domain.RoleTechnician, "09:00")

	if err := s.Tickets().CreateAssigned(ctx, &domain.Ticket{Title: "Monitor off", ClientID: client.ID}, nil, pickFirst); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Technicians().Delete(ctx, busy.ID); !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("expected ErrReferenced, got %v", err)
	}
	if err := s.Technicians().Delete(ctx, idle.ID); err != nil {
		t.Fatalf("delete idle: %v", err)
	}
	if err := s.Technicians().Delete(ctx, client.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("clients are not technicians: %v", err)
	}
	techs, _ := s.Technicians().List(ctx)
	if len(techs) != 1 || techs[0].ID != busy.ID {
		t.Fatalf("unexpected directory: %+v", techs)
	}
}

func TestPurgeSkipsServicesHeldElsewhere(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	client := seedAccount(t, s, "c@x.com", domain.RoleClient)
	seedAccount(t, s, "t@x.com", domain.RoleTechnician, "08:00")
	svc := seedService(t, s, "Cable swap", 700)

	first := &domain.Ticket{Title: "Printer jam", ClientID: client.ID}
	second := &domain.Ticket{Title: "No network", ClientID: client.ID}
	for _, ticket := range []*domain.Ticket{first, second} {
		if err := s.Tickets().CreateAssigned(ctx, ticket, []string{svc.ID}, pickFirst); err != nil {
			t.Fatalf("create ticket: %v", err)
		}
	}

	if err := s.Tickets().DetachService(ctx, first.ID, svc.ID, true); err != nil {
		t.Fatalf("detach first: %v", err)
	}
	got, err := s.Tickets().GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("get second: %v", err)
	}
	if !got.HasService(svc.ID) {
		t.Fatal("second ticket lost the service")
	}

	if err := s.Tickets().DetachService(ctx, second.ID, svc.ID, true); err != nil {
		t.Fatalf("detach second: %v", err)
	}
	if _, err := s.Services().GetByID(ctx, svc.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected last holder to purge, got %v", err)
	}
}
