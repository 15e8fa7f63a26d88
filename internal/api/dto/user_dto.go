package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ClientRegisterRequest payload for new client accounts.
type ClientRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login of any role.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountResponse is the public projection of an account.
type AccountResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	PhotoURL     *string     `json:"photo_url"`
	Availability []string    `json:"availability,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// ProfileResponse is the client or technician display block inside a ticket.
type ProfileResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	PhotoURL *string `json:"photo_url"`
}

// NewAccountResponse formats an account. Password hashes never leave this package.
func NewAccountResponse(account *domain.Account, baseURL string) AccountResponse {
	resp := AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
		PhotoURL:  PhotoURL(account.PhotoURL, baseURL),
		CreatedAt: account.CreatedAt,
	}
	if account.Role == domain.RoleTechnician {
		resp.Availability = nonNil(account.Availability)
	}
	return resp
}

// NewProfileResponse formats a ticket participant. A nil profile yields nil.
func NewProfileResponse(profile *domain.Profile, baseURL string) *ProfileResponse {
	if profile == nil {
		return nil
	}
	return &ProfileResponse{
		ID:       profile.ID,
		Name:     profile.Name,
		Email:    profile.Email,
		PhotoURL: PhotoURL(profile.PhotoURL, baseURL),
	}
}
