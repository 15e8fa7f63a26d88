package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	services   repository.ServiceRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	ServiceRepo repository.ServiceRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	ServiceIDs  []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		services:   deps.ServiceRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket opens a ticket for the calling client and assigns it to the
// least-loaded available technician.
func (s *TicketService) CreateTicket(ctx context.Context, caller domain.Caller, input TicketCreateInput) (*domain.Ticket, error) {
	if !caller.IsClient() {
		return nil, apperrors.NewForbidden("only clients can open tickets")
	}

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if len(input.ServiceIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one service is required", map[string]any{"field": "serviceIds"})
	}
	serviceIDs, err := normalizeIDs("serviceIds", input.ServiceIDs)
	if err != nil {
		return nil, err
	}

	active, err := s.activeServices(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, apperrors.NewNotFoundMessage("no active service found", map[string]any{"serviceIds": serviceIDs})
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = active[0].Title
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    category,
		Status:      domain.TicketStatusOpen,
		ClientID:    caller.ID,
	}
	attachIDs := make([]string, 0, len(active))
	for _, svc := range active {
		attachIDs = append(attachIDs, svc.ID)
	}

	if err := s.tickets.CreateAssigned(ctx, ticket, attachIDs, loggedAssignment(s.logger)); err != nil {
		return nil, apperrors.MapError(err)
	}

	created, err := s.reload(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", created.ID),
		zap.String("client_id", created.ClientID),
		zap.String("technician_id", created.TechnicianID),
		zap.Int64("total_cents", int64(created.TotalPrice())))

	s.record(ctx, caller, created.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"status":        created.Status,
		"technician_id": created.TechnicianID,
		"service_ids":   attachIDs,
	})
	s.publish(ctx, events.NewEvent(events.EventTicketCreated, created.ID, events.ActorFromCaller(caller),
		events.TicketCreatedPayload{
			Title:        created.Title,
			ClientID:     created.ClientID,
			TechnicianID: created.TechnicianID,
			ServiceIDs:   attachIDs,
			Total:        created.TotalPrice(),
		}))
	return created, nil
}

// GetTicket returns a ticket the caller is allowed to read.
func (s *TicketService) GetTicket(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	if err := validateID("id", ticketID); err != nil {
		return nil, err
	}
	ticket, err := s.reload(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(caller, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListForCaller returns the tickets visible to caller, newest first.
func (s *TicketService) ListForCaller(ctx context.Context, caller domain.Caller) ([]domain.Ticket, error) {
	filter, err := visibilityFilter(caller)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// SetStatus moves a ticket to any of the three statuses.
func (s *TicketService) SetStatus(ctx context.Context, caller domain.Caller, ticketID, rawStatus string) (*domain.Ticket, error) {
	status, ok := domain.ParseTicketStatus(strings.TrimSpace(rawStatus))
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"field":   "status",
			"allowed": []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed},
		})
	}
	ticket, err := s.loadForUpdate(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticket.ID})
	}

	if oldStatus != status {
		s.record(ctx, caller, ticket.ID, domain.ChangeTypeStatus,
			map[string]any{"status": oldStatus},
			map[string]any{"status": status})
		s.publish(ctx, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, events.ActorFromCaller(caller),
			events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: status}))
	}
	return s.reload(ctx, ticket.ID)
}

// AddAdditionalService creates a ticket-private service and attaches it.
func (s *TicketService) AddAdditionalService(ctx context.Context, caller domain.Caller, ticketID, title string, price domain.Cents) (*domain.Ticket, error) {
	if price <= 0 {
		return nil, apperrors.NewValidationError("price must be greater than zero", map[string]any{"field": "price"})
	}
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadForUpdate(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureOpenForServices(ticket); err != nil {
		return nil, err
	}

	svc := &domain.Service{Title: title, Price: price, Active: true, IsDefault: false}
	if err := s.tickets.AttachNewService(ctx, ticket.ID, svc); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticket.ID})
	}

	updated, err := s.reload(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.serviceAdded(ctx, caller, updated, *svc)
	return updated, nil
}

// AttachServices adds active catalog services to an existing ticket.
func (s *TicketService) AttachServices(ctx context.Context, caller domain.Caller, ticketID string, serviceIDs []string) (*domain.Ticket, error) {
	if len(serviceIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one service is required", map[string]any{"field": "serviceIds"})
	}
	ids, err := normalizeIDs("serviceIds", serviceIDs)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadForUpdate(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureOpenForServices(ticket); err != nil {
		return nil, err
	}

	active, err := s.activeServices(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, apperrors.NewNotFoundMessage("no active service found", map[string]any{"serviceIds": ids})
	}

	fresh := make([]domain.Service, 0, len(active))
	for _, svc := range active {
		if !ticket.HasService(svc.ID) {
			fresh = append(fresh, svc)
		}
	}
	if len(fresh) == 0 {
		return nil, apperrors.NewValidationError("services already attached to ticket", map[string]any{"serviceIds": ids})
	}

	freshIDs := make([]string, 0, len(fresh))
	for _, svc := range fresh {
		freshIDs = append(freshIDs, svc.ID)
	}
	if err := s.tickets.AttachServices(ctx, ticket.ID, freshIDs); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticket.ID})
	}

	updated, err := s.reload(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	for _, svc := range fresh {
		s.serviceAdded(ctx, caller, updated, svc)
	}
	return updated, nil
}

// DetachService removes one service from one ticket. Additional services are
// deleted along with the association.
func (s *TicketService) DetachService(ctx context.Context, caller domain.Caller, ticketID, serviceID string) (*domain.Ticket, error) {
	if err := validateID("serviceId", serviceID); err != nil {
		return nil, err
	}
	ticket, err := s.loadForUpdate(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	return s.detach(ctx, caller, ticket, serviceID)
}

// RemoveService detaches a service from the single ticket holding it.
func (s *TicketService) RemoveService(ctx context.Context, caller domain.Caller, serviceID string) (*domain.Ticket, error) {
	if err := validateID("id", serviceID); err != nil {
		return nil, err
	}
	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return nil, notFoundOr(err, "service", map[string]any{"service_id": serviceID})
	}

	ticketIDs, err := s.tickets.TicketIDsByService(ctx, serviceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	switch len(ticketIDs) {
	case 0:
		return nil, apperrors.NewNotFoundMessage("service is not attached to any ticket", map[string]any{"service_id": serviceID})
	case 1:
	default:
		return nil, apperrors.NewConflict("service is attached to more than one ticket; detach it per ticket", map[string]any{
			"service_id": serviceID,
			"ticket_ids": ticketIDs,
		})
	}

	ticket, err := s.loadForUpdate(ctx, caller, ticketIDs[0])
	if err != nil {
		return nil, err
	}
	return s.detach(ctx, caller, ticket, serviceID)
}

// ListHistory returns the audit trail of a ticket the caller can read.
func (s *TicketService) ListHistory(ctx context.Context, caller domain.Caller, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, caller, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) detach(ctx context.Context, caller domain.Caller, ticket *domain.Ticket, serviceID string) (*domain.Ticket, error) {
	if err := ensureOpenForServices(ticket); err != nil {
		return nil, err
	}

	var removed *domain.Service
	for i := range ticket.Services {
		if ticket.Services[i].ID == serviceID {
			removed = &ticket.Services[i]
			break
		}
	}
	if removed == nil {
		return nil, apperrors.NewNotFoundMessage("service is not attached to this ticket", map[string]any{
			"ticket_id":  ticket.ID,
			"service_id": serviceID,
		})
	}

	if err := s.tickets.DetachService(ctx, ticket.ID, serviceID, !removed.IsDefault); err != nil {
		return nil, notFoundOr(err, "service", map[string]any{"service_id": serviceID})
	}

	updated, err := s.reload(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, caller, ticket.ID, domain.ChangeTypeServiceRemoved,
		map[string]any{"service_id": removed.ID, "title": removed.Title, "price_cents": int64(removed.Price)},
		map[string]any{"total_cents": int64(updated.TotalPrice())})
	s.publish(ctx, events.NewEvent(events.EventTicketServiceRemoved, ticket.ID, events.ActorFromCaller(caller),
		events.TicketServicePayload{
			ServiceID: removed.ID,
			Title:     removed.Title,
			Price:     removed.Price,
			IsDefault: removed.IsDefault,
			Total:     updated.TotalPrice(),
		}))
	return updated, nil
}

func (s *TicketService) serviceAdded(ctx context.Context, caller domain.Caller, ticket *domain.Ticket, svc domain.Service) {
	s.record(ctx, caller, ticket.ID, domain.ChangeTypeServiceAdded, nil,
		map[string]any{"service_id": svc.ID, "title": svc.Title, "price_cents": int64(svc.Price), "total_cents": int64(ticket.TotalPrice())})
	s.publish(ctx, events.NewEvent(events.EventTicketServiceAdded, ticket.ID, events.ActorFromCaller(caller),
		events.TicketServicePayload{
			ServiceID: svc.ID,
			Title:     svc.Title,
			Price:     svc.Price,
			IsDefault: svc.IsDefault,
			Total:     ticket.TotalPrice(),
		}))
}

// activeServices resolves ids to active catalog services in input order.
// Ad-hoc services belong to the ticket they were added to and are skipped.
func (s *TicketService) activeServices(ctx context.Context, ids []string) ([]domain.Service, error) {
	found, err := s.services.ListByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	active := make([]domain.Service, 0, len(found))
	for _, svc := range found {
		if svc.Active && svc.IsDefault {
			active = append(active, svc)
		}
	}
	return active, nil
}

// loadForUpdate fetches a ticket the caller may mutate. Technicians may only
// touch tickets assigned to them.
func (s *TicketService) loadForUpdate(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	if err := validateID("id", ticketID); err != nil {
		return nil, err
	}
	ticket, err := s.reload(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch {
	case caller.IsAdmin():
	case caller.IsTechnician() && ticket.TechnicianID == caller.ID:
	default:
		return nil, apperrors.NewForbidden("ticket is not assigned to caller")
	}
	return ticket, nil
}

func (s *TicketService) reload(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// record appends an audit entry. The ticket write already happened, so a
// failure here is logged rather than returned.
func (s *TicketService) record(ctx context.Context, caller domain.Caller, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	actorID := caller.ID
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByRole: caller.Role,
		ChangedByID:   &actorID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("record ticket history",
			zap.String("ticket_id", ticketID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("ticket event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func visibilityFilter(caller domain.Caller) (repository.TicketFilter, error) {
	switch caller.Role {
	case domain.RoleAdmin:
		return repository.TicketFilter{}, nil
	case domain.RoleClient:
		id := caller.ID
		return repository.TicketFilter{ClientID: &id}, nil
	case domain.RoleTechnician:
		id := caller.ID
		return repository.TicketFilter{TechnicianID: &id}, nil
	}
	return repository.TicketFilter{}, apperrors.NewForbidden("unknown role")
}

func authorizeRead(caller domain.Caller, ticket *domain.Ticket) error {
	switch caller.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleClient:
		if ticket.ClientID == caller.ID {
			return nil
		}
	case domain.RoleTechnician:
		if ticket.TechnicianID == caller.ID {
			return nil
		}
	}
	return apperrors.NewForbidden("ticket not visible to caller")
}

func ensureOpenForServices(ticket *domain.Ticket) error {
	if ticket.IsClosed() {
		return apperrors.NewConflict("ticket is closed", map[string]any{"ticket_id": ticket.ID})
	}
	return nil
}
