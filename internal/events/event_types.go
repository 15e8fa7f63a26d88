package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventTicketServiceAdded   EventType = "ticket_service_added"
	EventTicketServiceRemoved EventType = "ticket_service_removed"
)

// Actor identifies who triggered an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// ActorFromCaller converts the request caller into an event actor.
func ActorFromCaller(caller domain.Caller) Actor {
	return Actor{ID: caller.ID, Role: caller.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, ticketID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title        string       `json:"title"`
	ClientID     string       `json:"client_id"`
	TechnicianID string       `json:"technician_id"`
	ServiceIDs   []string     `json:"service_ids"`
	Total        domain.Cents `json:"total_cents"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketServicePayload is shared by service added and removed events.
type TicketServicePayload struct {
	ServiceID string       `json:"service_id"`
	Title     string       `json:"title"`
	Price     domain.Cents `json:"price_cents"`
	IsDefault bool         `json:"is_default"`
	Total     domain.Cents `json:"total_cents"`
}
