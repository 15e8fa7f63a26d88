package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ServiceIDs  []string `json:"service_ids"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AttachServicesRequest payload.
type AttachServicesRequest struct {
	ServiceIDs []string `json:"service_ids"`
}

// AdditionalServiceRequest payload. Price is a decimal amount.
type AdditionalServiceRequest struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// TicketResponse is the public projection of a ticket with its derived total.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Status      domain.TicketStatus `json:"status"`
	Client      *ProfileResponse    `json:"client"`
	Technician  *ProfileResponse    `json:"technician"`
	Services    []ServiceResponse   `json:"services"`
	TotalPrice  float64             `json:"total_price"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	ChangedByRole domain.Role             `json:"changed_by_role"`
	ChangedByID   *string                 `json:"changed_by_id"`
	OldValue      map[string]any          `json:"old_value,omitempty"`
	NewValue      map[string]any          `json:"new_value,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// NewTicketResponse formats a ticket. Participant photo references are
// resolved against baseURL.
func NewTicketResponse(ticket *domain.Ticket, baseURL string) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Status:      ticket.Status,
		Client:      NewProfileResponse(ticket.Client, baseURL),
		Technician:  NewProfileResponse(ticket.Technician, baseURL),
		Services:    NewServiceResponses(ticket.Services),
		TotalPrice:  ticket.TotalPrice().Float64(),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketResponses formats a ticket list preserving order.
func NewTicketResponses(tickets []domain.Ticket, baseURL string) []TicketResponse {
	resp := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, NewTicketResponse(&tickets[i], baseURL))
	}
	return resp
}

// NewTicketHistoryResponses formats the audit trail of a ticket.
func NewTicketHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	resp := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByRole: entry.ChangedByRole,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}
