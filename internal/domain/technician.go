package domain

// Technician is an account with role technician plus its current open load.
type Technician struct {
	Account
	// OpenLoad counts the technician's tickets in open or in_progress status.
	OpenLoad int
}

// Assignable reports whether the technician declared at least one time slot.
func (t Technician) Assignable() bool {
	return len(t.Availability) > 0
}
