package domain

import "time"

// Service is a priced line item. Catalog services have IsDefault set; ad-hoc
// services added by a technician to a single ticket do not.
type Service struct {
	ID        string
	Title     string
	Price     Cents
	Active    bool
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
