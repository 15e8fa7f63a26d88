package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestTicketLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	t1 := f.account(t, "t1@x.com", domain.RoleTechnician, "08:00")
	t2 := f.account(t, "t2@x.com", domain.RoleTechnician, "09:00")
	f.seedTicket(t, client.ID, t2.ID, domain.TicketStatusOpen)
	f.seedTicket(t, client.ID, t2.ID, domain.TicketStatusInProgress)
	formatting := f.service(t, "Formatting", 10000)

	ticket := f.create(t, client, formatting.ID)
	if ticket.TechnicianID != t1.ID {
		t.Fatalf("assigned to %s, want least loaded %s", ticket.TechnicianID, t1.ID)
	}
	if ticket.Status != domain.TicketStatusOpen || ticket.TotalPrice() != 10000 {
		t.Fatalf("unexpected ticket: status=%s total=%d", ticket.Status, ticket.TotalPrice())
	}
	if ticket.Category != "Formatting" {
		t.Fatalf("category = %q, want first service title", ticket.Category)
	}
	if ticket.Technician == nil || ticket.Technician.Email != "t1@x.com" {
		t.Fatalf("technician profile missing: %+v", ticket.Technician)
	}

	ticket, err := f.tickets.AddAdditionalService(ctx, t1, ticket.ID, "Extra diagnostics", 5000)
	if err != nil {
		t.Fatalf("add additional service: %v", err)
	}
	if ticket.TotalPrice() != 15000 || len(ticket.Services) != 2 {
		t.Fatalf("after add: total=%d services=%d", ticket.TotalPrice(), len(ticket.Services))
	}
	if ticket.Services[1].IsDefault {
		t.Fatal("additional service must not be a catalog default")
	}

	ticket, err = f.tickets.SetStatus(ctx, f.admin, ticket.ID, "closed")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if ticket.Status != domain.TicketStatusClosed || ticket.TotalPrice() != 15000 {
		t.Fatalf("after close: status=%s total=%d", ticket.Status, ticket.TotalPrice())
	}

	history, err := f.tickets.ListHistory(ctx, client, ticket.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	wantTypes := []domain.TicketChangeType{domain.ChangeTypeCreated, domain.ChangeTypeServiceAdded, domain.ChangeTypeStatus}
	if len(history) != len(wantTypes) {
		t.Fatalf("history length = %d, want %d", len(history), len(wantTypes))
	}
	for i, want := range wantTypes {
		if history[i].ChangeType != want {
			t.Fatalf("history[%d] = %s, want %s", i, history[i].ChangeType, want)
		}
	}

	wantEvents := []events.EventType{events.EventTicketCreated, events.EventTicketServiceAdded, events.EventTicketStatusChanged}
	if len(f.published) != len(wantEvents) {
		t.Fatalf("published %d events, want %d", len(f.published), len(wantEvents))
	}
	for i, want := range wantEvents {
		if f.published[i].Type != want {
			t.Fatalf("event[%d] = %s, want %s", i, f.published[i].Type, want)
		}
	}
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	f.account(t, "t@x.com", domain.RoleTechnician, "08:00")
	svc := f.service(t, "Formatting", 10000)

	cases := []struct {
		name  string
		input TicketCreateInput
	}{
		{"short title", TicketCreateInput{Title: " abc ", Description: "d", ServiceIDs: []string{svc.ID}}},
		{"blank description", TicketCreateInput{Title: "Valid title", Description: "  ", ServiceIDs: []string{svc.ID}}},
		{"no services", TicketCreateInput{Title: "Valid title", Description: "d"}},
		{"malformed service id", TicketCreateInput{Title: "Valid title", Description: "d", ServiceIDs: []string{"nope"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(context.Background(), client, tc.input)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := f.tickets.CreateTicket(context.Background(), f.admin, TicketCreateInput{Title: "Valid title", Description: "d", ServiceIDs: []string{svc.ID}}); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("admin must not open tickets, got %v", err)
	}
}

func TestCreateTicketServiceResolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	f.account(t, "t@x.com", domain.RoleTechnician, "08:00")
	active := f.service(t, "Formatting", 10000)
	inactive := f.service(t, "Legacy support", 2000)
	if _, err := f.catalog.Deactivate(ctx, f.admin, inactive.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.tickets.CreateTicket(ctx, client, TicketCreateInput{
		Title: "Valid title", Description: "d", ServiceIDs: []string{inactive.ID, uuid.NewString()},
	})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) || err.Error() != "no active service found" {
		t.Fatalf("expected no active service, got %v", err)
	}

	ticket, err := f.tickets.CreateTicket(ctx, client, TicketCreateInput{
		Title: "Valid title", Description: "d", Category: "Hardware",
		ServiceIDs: []string{active.ID, inactive.ID, active.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(ticket.Services) != 1 || ticket.Services[0].ID != active.ID || ticket.Category != "Hardware" {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}
}

func TestCreateTicketWithoutTechnicianWritesNothing(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		slots   []string
		addTech bool
		wantMsg string
	}{
		{name: "no technician", wantMsg: msgNoTechnicianConfigured},
		{name: "no availability", addTech: true, wantMsg: msgNoTechnicianAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			client := f.account(t, "client@x.com", domain.RoleClient)
			if tc.addTech {
				f.account(t, "t@x.com", domain.RoleTechnician, tc.slots...)
			}
			svc := f.service(t, "Formatting", 10000)

			_, err := f.tickets.CreateTicket(ctx, client, TicketCreateInput{Title: "Valid title", Description: "d", ServiceIDs: []string{svc.ID}})
			if !apperrors.HasCode(err, apperrors.CodeNotFound) || err.Error() != tc.wantMsg {
				t.Fatalf("expected %q, got %v", tc.wantMsg, err)
			}
			all, _ := f.tickets.ListForCaller(ctx, f.admin)
			if len(all) != 0 {
				t.Fatalf("expected no tickets, got %d", len(all))
			}
			if len(f.published) != 0 {
				t.Fatalf("expected no events, got %d", len(f.published))
			}
		})
	}
}

func TestSetStatusIsPermissive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	tech := f.account(t, "t@x.com", domain.RoleTechnician, "08:00")
	svc := f.service(t, "Formatting", 10000)
	ticket := f.create(t, client, svc.ID)

	for _, next := range []string{"closed", "open", "in_progress", "in_progress", "closed", "in_progress"} {
		got, err := f.tickets.SetStatus(ctx, tech, ticket.ID, next)
		if err != nil {
			t.Fatalf("set %s: %v", next, err)
		}
		if string(got.Status) != next || got.TotalPrice() != 10000 {
			t.Fatalf("status=%s total=%d after %s", got.Status, got.TotalPrice(), next)
		}
	}

	for _, bad := range []string{"resolved", "CLOSED", ""} {
		if _, err := f.tickets.SetStatus(ctx, tech, ticket.ID, bad); !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("status %q: expected validation error, got %v", bad, err)
		}
	}
	if _, err := f.tickets.SetStatus(ctx, tech, uuid.NewString(), "open"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.tickets.SetStatus(ctx, client, ticket.ID, "open"); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("client must not change status, got %v", err)
	}
}

func TestClosedTicketFreesTechnicianLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	t1 := f.account(t, "t1@x.com", domain.RoleTechnician, "08:00")
	t2 := f.account(t, "t2@x.com", domain.RoleTechnician, "09:00")
	svc := f.service(t, "Formatting", 10000)

	first := f.create(t, client, svc.ID)
	second := f.create(t, client, svc.ID)
	if first.TechnicianID != t1.ID || second.TechnicianID != t2.ID {
		t.Fatalf("expected round of assignments t1,t2; got %s,%s", first.TechnicianID, second.TechnicianID)
	}

	if _, err := f.tickets.SetStatus(ctx, f.admin, second.ID, "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}
	third := f.create(t, client, svc.ID)
	if third.TechnicianID != t2.ID {
		t.Fatalf("closed tickets must not count toward load; got %s", third.TechnicianID)
	}
}

func TestVisibilityScoping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.account(t, "c1@x.com", domain.RoleClient)
	c2 := f.account(t, "c2@x.com", domain.RoleClient)
	t1 := f.account(t, "t1@x.com", domain.RoleTechnician, "08:00")
	t2 := f.account(t, "t2@x.com", domain.RoleTechnician, "09:00")
	svc := f.service(t, "Formatting", 10000)

	a := f.create(t, c1, svc.ID)
	b := f.create(t, c2, svc.ID)
	c := f.create(t, c1, svc.ID)

	cases := []struct {
		name   string
		caller domain.Caller
		want   []string
	}{
		{"admin", f.admin, []string{c.ID, b.ID, a.ID}},
		{"client one", c1, []string{c.ID, a.ID}},
		{"client two", c2, []string{b.ID}},
		{"technician one", t1, []string{c.ID, a.ID}},
		{"technician two", t2, []string{b.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.tickets.ListForCaller(ctx, tc.caller)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d tickets, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("ticket[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	if _, err := f.tickets.ListForCaller(ctx, domain.Caller{ID: "x", Role: "guest"}); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("unknown role: expected forbidden, got %v", err)
	}
	if _, err := f.tickets.GetTicket(ctx, c2, a.ID); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("foreign client read: expected forbidden, got %v", err)
	}
	if _, err := f.tickets.GetTicket(ctx, t2, a.ID); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("unassigned technician read: expected forbidden, got %v", err)
	}
	if got, err := f.tickets.GetTicket(ctx, c1, a.ID); err != nil || got.ID != a.ID {
		t.Fatalf("own read: %v", err)
	}
	if _, err := f.tickets.GetTicket(ctx, f.admin, "not-a-uuid"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("malformed id: expected validation error, got %v", err)
	}
}

func TestAdditionalServiceRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	tech := f.account(t, "t1@x.com", domain.RoleTechnician, "08:00")
	other := f.account(t, "t2@x.com", domain.RoleTechnician)
	svc := f.service(t, "Formatting", 10000)
	ticket := f.create(t, client, svc.ID)

	cases := []struct {
		name   string
		caller domain.Caller
		id     string
		title  string
		price  domain.Cents
		code   string
	}{
		{"zero price", tech, ticket.ID, "Extra diagnostics", 0, apperrors.CodeValidation},
		{"negative price", tech, ticket.ID, "Extra diagnostics", -100, apperrors.CodeValidation},
		{"short title", tech, ticket.ID, "Fix", 100, apperrors.CodeValidation},
		{"unknown ticket", tech, uuid.NewString(), "Extra diagnostics", 100, apperrors.CodeNotFound},
		{"not assigned", other, ticket.ID, "Extra diagnostics", 100, apperrors.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tickets.AddAdditionalService(ctx, tc.caller, tc.id, tc.title, tc.price)
			if !apperrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	if _, err := f.tickets.SetStatus(ctx, tech, ticket.ID, "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := f.tickets.AddAdditionalService(ctx, tech, ticket.ID, "Extra diagnostics", 100); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("closed ticket: expected conflict, got %v", err)
	}
	if _, err := f.tickets.DetachService(ctx, tech, ticket.ID, svc.ID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("closed ticket detach: expected conflict, got %v", err)
	}
}

func TestRemoveService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	tech := f.account(t, "t@x.com", domain.RoleTechnician, "08:00")
	shared := f.service(t, "Formatting", 10000)
	lonely := f.service(t, "Backup", 3000)
	unused := f.service(t, "Cleaning", 1500)

	first := f.create(t, client, shared.ID, lonely.ID)
	f.create(t, client, shared.ID)

	withExtra, err := f.tickets.AddAdditionalService(ctx, tech, first.ID, "Extra diagnostics", 5000)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	extraID := withExtra.Services[len(withExtra.Services)-1].ID

	if _, err := f.tickets.RemoveService(ctx, tech, shared.ID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("shared service: expected conflict, got %v", err)
	}
	if _, err := f.tickets.RemoveService(ctx, tech, unused.ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("unattached service: expected not found, got %v", err)
	}
	if _, err := f.tickets.RemoveService(ctx, tech, uuid.NewString()); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("unknown service: expected not found, got %v", err)
	}

	got, err := f.tickets.RemoveService(ctx, tech, lonely.ID)
	if err != nil {
		t.Fatalf("remove catalog service: %v", err)
	}
	if got.ID != first.ID || got.TotalPrice() != 15000 || got.HasService(lonely.ID) {
		t.Fatalf("unexpected ticket after remove: total=%d", got.TotalPrice())
	}
	if _, err := f.store.Services().GetByID(ctx, lonely.ID); err != nil {
		t.Fatalf("catalog service must survive removal: %v", err)
	}

	got, err = f.tickets.RemoveService(ctx, tech, extraID)
	if err != nil {
		t.Fatalf("remove additional service: %v", err)
	}
	if got.TotalPrice() != 10000 {
		t.Fatalf("total = %d, want 10000", got.TotalPrice())
	}
	if _, err := f.store.Services().GetByID(ctx, extraID); !apperrors.HasCode(apperrors.MapError(err), apperrors.CodeNotFound) {
		t.Fatalf("additional service must be purged, got %v", err)
	}
}

func TestDetachAndAttachServices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	tech := f.account(t, "t@x.com", domain.RoleTechnician, "08:00")
	a := f.service(t, "Formatting", 10000)
	b := f.service(t, "Backup", 3000)
	inactive := f.service(t, "Legacy", 999)
	if _, err := f.catalog.Deactivate(ctx, f.admin, inactive.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	ticket := f.create(t, client, a.ID)

	if _, err := f.tickets.AttachServices(ctx, tech, ticket.ID, []string{inactive.ID}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("inactive only: expected not found, got %v", err)
	}
	if _, err := f.tickets.AttachServices(ctx, tech, ticket.ID, []string{a.ID}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("already attached: expected validation error, got %v", err)
	}

	got, err := f.tickets.AttachServices(ctx, tech, ticket.ID, []string{a.ID, b.ID, inactive.ID})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(got.Services) != 2 || got.TotalPrice() != 13000 {
		t.Fatalf("after attach: %d services total %d", len(got.Services), got.TotalPrice())
	}

	got, err = f.tickets.DetachService(ctx, tech, ticket.ID, a.ID)
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if got.TotalPrice() != 3000 || got.HasService(a.ID) {
		t.Fatalf("after detach: total %d", got.TotalPrice())
	}
	if _, err := f.tickets.DetachService(ctx, tech, ticket.ID, a.ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("detach twice: expected not found, got %v", err)
	}
}

func TestDetachKeepsServicesHeldByOtherTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.account(t, "c1@x.com", domain.RoleClient)
	c2 := f.account(t, "c2@x.com", domain.RoleClient)
	tech := f.account(t, "t@x.com", domain.RoleTechnician, "08:00")
	base := f.service(t, "Formatting", 10000)
	notDefault := false
	custom, err := f.catalog.Create(ctx, f.admin, ServiceCreateInput{Title: "Custom cabling", Price: 700, IsDefault: &notDefault})
	if err != nil {
		t.Fatalf("create custom: %v", err)
	}

	first, err := f.tickets.AddAdditionalService(ctx, tech, f.create(t, c1, base.ID).ID, "Extra diagnostics", 5000)
	if err != nil {
		t.Fatalf("additional service: %v", err)
	}
	extra := first.Services[1]

	second, err := f.tickets.CreateTicket(ctx, c2, TicketCreateInput{
		Title:       "Laptop overheating",
		Description: "Fan noise",
		ServiceIDs:  []string{base.ID, extra.ID, custom.ID},
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if len(second.Services) != 1 || second.TotalPrice() != 10000 {
		t.Fatalf("ad-hoc ids offered at creation: %d services total %d", len(second.Services), second.TotalPrice())
	}
	if _, err := f.tickets.AttachServices(ctx, tech, second.ID, []string{extra.ID}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("attach ad-hoc: expected not found, got %v", err)
	}

	if err := f.store.Tickets().AttachServices(ctx, second.ID, []string{extra.ID}); err != nil {
		t.Fatalf("store attach: %v", err)
	}
	if _, err := f.tickets.DetachService(ctx, tech, first.ID, extra.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	got, err := f.tickets.GetTicket(ctx, f.admin, second.ID)
	if err != nil {
		t.Fatalf("get second: %v", err)
	}
	if !got.HasService(extra.ID) || got.TotalPrice() != 15000 {
		t.Fatalf("second ticket changed by detach on first: %d services total %d", len(got.Services), got.TotalPrice())
	}
	if _, err := f.store.Services().GetByID(ctx, custom.ID); err != nil {
		t.Fatalf("custom catalog entry: %v", err)
	}
}

func TestTotalMatchesServicesAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.account(t, "client@x.com", domain.RoleClient)
	tech := f.account(t, "t@x.com", domain.RoleTechnician, "08:00")
	a := f.service(t, "Formatting", 10000)
	b := f.service(t, "Backup", 7890)
	ticket := f.create(t, client, a.ID)

	check := func(step string) {
		t.Helper()
		got, err := f.tickets.GetTicket(ctx, f.admin, ticket.ID)
		if err != nil {
			t.Fatalf("%s: %v", step, err)
		}
		var sum domain.Cents
		for _, svc := range got.Services {
			sum += svc.Price
		}
		if got.TotalPrice() != sum {
			t.Fatalf("%s: total %d != sum %d", step, got.TotalPrice(), sum)
		}
	}

	check("create")
	if _, err := f.tickets.AttachServices(ctx, tech, ticket.ID, []string{b.ID}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	check("attach")
	if _, err := f.tickets.AddAdditionalService(ctx, tech, ticket.ID, "Cable replacement", 2490); err != nil {
		t.Fatalf("add: %v", err)
	}
	check("add")
	if _, err := f.tickets.DetachService(ctx, tech, ticket.ID, a.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	check("detach")
	if _, err := f.tickets.SetStatus(ctx, tech, ticket.ID, "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}
	check("close")
}

func TestListForCallerFilterShape(t *testing.T) {
	client := domain.Caller{ID: "c", Role: domain.RoleClient}
	filter, err := visibilityFilter(client)
	if err != nil || filter.ClientID == nil || *filter.ClientID != "c" || filter.TechnicianID != nil {
		t.Fatalf("unexpected client filter: %+v %v", filter, err)
	}
	filter, _ = visibilityFilter(domain.Caller{ID: "a", Role: domain.RoleAdmin})
	if filter != (repository.TicketFilter{}) {
		t.Fatalf("admin filter must be empty: %+v", filter)
	}
}
