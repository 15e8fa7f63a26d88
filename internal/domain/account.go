package domain

import "time"

// Role enumerates the kinds of account that can authenticate.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClient     Role = "client"
	RoleTechnician Role = "technician"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleTechnician:
		return true
	}
	return false
}

// Account is a login identity. Availability is only meaningful for technicians.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	PhotoURL     *string
	Availability []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the display projection of an account attached to tickets.
type Profile struct {
	ID       string
	Name     string
	Email    string
	PhotoURL *string
}

// Profile returns the display projection of a.
func (a *Account) Profile() Profile {
	return Profile{ID: a.ID, Name: a.Name, Email: a.Email, PhotoURL: a.PhotoURL}
}
