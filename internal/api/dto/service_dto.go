package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateServiceRequest payload. Price is a decimal amount.
type CreateServiceRequest struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	IsDefault *bool   `json:"is_default"`
}

// UpdateServiceRequest payload; nil fields stay unchanged.
type UpdateServiceRequest struct {
	Title  *string  `json:"title"`
	Price  *float64 `json:"price"`
	Active *bool    `json:"active"`
}

// ServiceResponse is the public projection of a service.
type ServiceResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Active    bool      `json:"active"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewServiceResponse formats a service.
func NewServiceResponse(svc *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:        svc.ID,
		Title:     svc.Title,
		Price:     svc.Price.Float64(),
		Active:    svc.Active,
		IsDefault: svc.IsDefault,
		CreatedAt: svc.CreatedAt,
		UpdatedAt: svc.UpdatedAt,
	}
}

// NewServiceResponses formats a list of services.
func NewServiceResponses(services []domain.Service) []ServiceResponse {
	resp := make([]ServiceResponse, 0, len(services))
	for i := range services {
		resp = append(resp, NewServiceResponse(&services[i]))
	}
	return resp
}
