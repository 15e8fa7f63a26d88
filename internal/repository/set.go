package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set groups the repositories one backing store provides.
type Set struct {
	Accounts    AccountRepository
	Technicians TechnicianRepository
	Services    ServiceRepository
	Tickets     TicketRepository
	History     TicketHistoryRepository
}

// NewPostgresSet builds every repository on top of pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Accounts:    NewAccountRepository(pool),
		Technicians: NewTechnicianRepository(pool),
		Services:    NewServiceRepository(pool),
		Tickets:     NewTicketRepository(pool),
		History:     NewTicketHistoryRepository(pool),
	}
}
