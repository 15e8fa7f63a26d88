package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated        TicketChangeType = "CREATED"
	ChangeTypeStatus         TicketChangeType = "STATUS_CHANGE"
	ChangeTypeServiceAdded   TicketChangeType = "SERVICE_ADDED"
	ChangeTypeServiceRemoved TicketChangeType = "SERVICE_REMOVED"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByRole Role
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
