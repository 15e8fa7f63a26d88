package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// ParseTicketStatus accepts exactly the three status literals.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch s := TicketStatus(raw); s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return s, true
	}
	return "", false
}

// CountsTowardLoad reports whether a ticket in this status weighs on its technician.
func (s TicketStatus) CountsTowardLoad() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

// Ticket is the aggregate for support requests ("calleds").
type Ticket struct {
	ID           string
	Title        string
	Description  string
	Category     string
	Status       TicketStatus
	ClientID     string
	TechnicianID string
	Services     []Service
	Client       *Profile
	Technician   *Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TotalPrice sums the attached services. It is derived on every read and never stored.
func (t *Ticket) TotalPrice() Cents {
	var total Cents
	for _, svc := range t.Services {
		total += svc.Price
	}
	return total
}

// HasService reports whether serviceID is attached to the ticket.
func (t *Ticket) HasService(serviceID string) bool {
	for _, svc := range t.Services {
		if svc.ID == serviceID {
			return true
		}
	}
	return false
}

// IsClosed reports whether the ticket reached its terminal status.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}
