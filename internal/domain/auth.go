package domain

// Caller identifies who invokes an operation. It is built per request from
// the verified token and never kept in shared state.
type Caller struct {
	ID   string
	Role Role
}

func (c Caller) IsAdmin() bool      { return c.Role == RoleAdmin }
func (c Caller) IsClient() bool     { return c.Role == RoleClient }
func (c Caller) IsTechnician() bool { return c.Role == RoleTechnician }
