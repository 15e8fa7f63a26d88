package dto

import (
	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTechnicianRequest payload.
type CreateTechnicianRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	PhotoURL     *string  `json:"photo_url"`
	Availability []string `json:"availability"`
}

// UpdateAvailabilityRequest replaces a technician's slots.
type UpdateAvailabilityRequest struct {
	Availability []string `json:"availability"`
}

// TechnicianResponse is an account with its open load.
type TechnicianResponse struct {
	AccountResponse
	OpenLoad int `json:"open_load"`
}

// NewTechnicianResponse formats a technician.
func NewTechnicianResponse(tech *domain.Technician, baseURL string) TechnicianResponse {
	return TechnicianResponse{
		AccountResponse: NewAccountResponse(&tech.Account, baseURL),
		OpenLoad:        tech.OpenLoad,
	}
}

// NewTechnicianResponses formats a technician directory.
func NewTechnicianResponses(techs []domain.Technician, baseURL string) []TechnicianResponse {
	resp := make([]TechnicianResponse, 0, len(techs))
	for i := range techs {
		resp = append(resp, NewTechnicianResponse(&techs[i], baseURL))
	}
	return resp
}
