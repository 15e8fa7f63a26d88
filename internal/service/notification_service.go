package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// NotificationService turns ticket events into outbound notices. Delivery is
// stubbed: notices are logged and counted.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
}

// Notice is one rendered notification.
type Notice struct {
	Channel string
	Subject string
	Body    string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every ticket event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketServiceAdded,
		events.EventTicketServiceRemoved,
	} {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.metrics.RecordTicketEvent(string(event.Type))
	for _, notice := range n.Render(event) {
		n.deliver(ctx, event, notice)
	}
	return nil
}

// Render builds the notices for event. Service changes only reach the
// webhook; creation and status changes also produce an email.
func (n *NotificationService) Render(event events.Event) []Notice {
	subject, body := describe(event)
	if subject == "" {
		return nil
	}

	notices := make([]Notice, 0, 2)
	emailWorthy := event.Type == events.EventTicketCreated || event.Type == events.EventTicketStatusChanged
	if emailWorthy && strings.TrimSpace(n.cfg.EmailFrom) != "" {
		notices = append(notices, Notice{Channel: "email", Subject: subject, Body: body})
	}
	if strings.TrimSpace(n.cfg.WebhookURL) != "" {
		notices = append(notices, Notice{Channel: "webhook", Subject: subject, Body: body})
	}
	return notices
}

func describe(event events.Event) (string, string) {
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return fmt.Sprintf("Ticket %q opened", p.Title),
			fmt.Sprintf("Ticket %s assigned to technician %s with %d service(s), total %s.",
				event.TicketID, p.TechnicianID, len(p.ServiceIDs), p.Total)
	case events.TicketStatusChangedPayload:
		return fmt.Sprintf("Ticket status is now %s", p.NewStatus),
			fmt.Sprintf("Ticket %s moved from %s to %s.", event.TicketID, p.OldStatus, p.NewStatus)
	case events.TicketServicePayload:
		verb := "added to"
		if event.Type == events.EventTicketServiceRemoved {
			verb = "removed from"
		}
		return fmt.Sprintf("Service %q %s ticket", p.Title, verb),
			fmt.Sprintf("Service %s (%s) %s ticket %s; new total %s.", p.ServiceID, p.Price, verb, event.TicketID, p.Total)
	}
	return "", ""
}

func (n *NotificationService) deliver(_ context.Context, event events.Event, notice Notice) {
	fields := []zap.Field{
		zap.String("channel", notice.Channel),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID),
		zap.String("subject", notice.Subject),
	}
	switch notice.Channel {
	case "email":
		fields = append(fields, zap.String("from", n.cfg.EmailFrom))
	case "webhook":
		fields = append(fields, zap.String("url", n.cfg.WebhookURL))
	}
	n.logger.Info("notification queued", fields...)
}
