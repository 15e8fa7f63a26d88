package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// assignmentLockKey is the pg_advisory_xact_lock key that serializes ticket
// creation so two requests cannot both read the same technician loads.
const assignmentLockKey int64 = 0x68656c7064657368

// TicketFilter scopes ticket listing. Nil fields do not filter.
type TicketFilter struct {
	ClientID     *string
	TechnicianID *string
}

// AssignFunc picks the technician for a new ticket from a directory snapshot
// ordered by technician creation.
type AssignFunc func(candidates []domain.Technician) (domain.Technician, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// CreateAssigned persists ticket with the technician chosen by assign and
	// attaches serviceIDs in order. Nothing is written when assign fails.
	CreateAssigned(ctx context.Context, ticket *domain.Ticket, serviceIDs []string, assign AssignFunc) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	AttachServices(ctx context.Context, ticketID string, serviceIDs []string) error
	AttachNewService(ctx context.Context, ticketID string, service *domain.Service) error
	// DetachService removes the association; purge also deletes the service
	// record once no other ticket holds it.
	DetachService(ctx context.Context, ticketID, serviceID string, purge bool) error
	TicketIDsByService(ctx context.Context, serviceID string) ([]string, error)
	CountByTechnician(ctx context.Context, technicianID string) (int, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `
        SELECT t.id, t.title, t.description, t.category, t.status, t.client_id, t.technician_id,
               t.created_at, t.updated_at,
               c.name, c.email, c.photo_url,
               te.name, te.email, te.photo_url
        FROM tickets t
        JOIN users c ON c.id = t.client_id
        JOIN users te ON te.id = t.technician_id`

func (r *ticketRepository) CreateAssigned(ctx context.Context, ticket *domain.Ticket, serviceIDs []string, assign AssignFunc) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, assignmentLockKey); err != nil {
		return fmt.Errorf("acquire assignment lock: %w", err)
	}

	candidates, err := listTechnicians(ctx, tx, "", nil)
	if err != nil {
		return fmt.Errorf("load technician directory: %w", err)
	}
	chosen, err := assign(candidates)
	if err != nil {
		return err
	}
	ticket.TechnicianID = chosen.ID

	const query = `
        INSERT INTO tickets (title, description, category, status, client_id, technician_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.ClientID,
		ticket.TechnicianID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	if err := insertTicketServices(ctx, tx, ticket.ID, serviceIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	services, err := loadTicketServices(ctx, r.pool, []string{ticket.ID})
	if err != nil {
		return nil, err
	}
	ticket.Services = services[ticket.ID]
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("t.client_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("t.technician_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id DESC`,
		ticketSelect, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	ids := []string{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
		ids = append(ids, ticket.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return tickets, nil
	}

	services, err := loadTicketServices(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		tickets[i].Services = services[tickets[i].ID]
	}
	return tickets, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE tickets SET status=$1, updated_at=clock_timestamp() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) AttachServices(ctx context.Context, ticketID string, serviceIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := touchTicket(ctx, tx, ticketID); err != nil {
		return err
	}
	if err := insertTicketServices(ctx, tx, ticketID, serviceIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) AttachNewService(ctx context.Context, ticketID string, service *domain.Service) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := touchTicket(ctx, tx, ticketID); err != nil {
		return err
	}
	if err := insertService(ctx, tx, service); err != nil {
		return err
	}
	if err := insertTicketServices(ctx, tx, ticketID, []string{service.ID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) DetachService(ctx context.Context, ticketID, serviceID string, purge bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx,
		`DELETE FROM ticket_services WHERE ticket_id=$1 AND service_id=$2`, ticketID, serviceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if purge {
		const query = `
        DELETE FROM services
        WHERE id=$1 AND NOT EXISTS (SELECT 1 FROM ticket_services WHERE service_id=$1)`
		if _, err := tx.Exec(ctx, query, serviceID); err != nil {
			return err
		}
	}
	if err := touchTicket(ctx, tx, ticketID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) TicketIDsByService(ctx context.Context, serviceID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ticket_id FROM ticket_services WHERE service_id=$1 ORDER BY attached_at ASC`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ticketRepository) CountByTechnician(ctx context.Context, technicianID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE technician_id=$1`, technicianID).Scan(&count)
	return count, err
}

func touchTicket(ctx context.Context, q querier, ticketID string) error {
	cmd, err := q.Exec(ctx, `UPDATE tickets SET updated_at=clock_timestamp() WHERE id=$1`, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// insertTicketServices inserts one row per id so attached_at follows input order.
func insertTicketServices(ctx context.Context, q querier, ticketID string, serviceIDs []string) error {
	const query = `
        INSERT INTO ticket_services (ticket_id, service_id) VALUES ($1,$2)
        ON CONFLICT (ticket_id, service_id) DO NOTHING`
	for _, serviceID := range serviceIDs {
		if _, err := q.Exec(ctx, query, ticketID, serviceID); err != nil {
			return fmt.Errorf("attach service %s: %w", serviceID, err)
		}
	}
	return nil
}

func loadTicketServices(ctx context.Context, q querier, ticketIDs []string) (map[string][]domain.Service, error) {
	const query = `
        SELECT ts.ticket_id, s.id, s.title, s.price_cents, s.active, s.is_default, s.created_at, s.updated_at
        FROM ticket_services ts
        JOIN services s ON s.id = ts.service_id
        WHERE ts.ticket_id = ANY($1::text[]::uuid[])
        ORDER BY ts.attached_at ASC, s.id ASC`
	rows, err := q.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.Service, len(ticketIDs))
	for rows.Next() {
		var ticketID string
		var svc domain.Service
		if err := rows.Scan(
			&ticketID,
			&svc.ID,
			&svc.Title,
			&svc.Price,
			&svc.Active,
			&svc.IsDefault,
			&svc.CreatedAt,
			&svc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result[ticketID] = append(result[ticketID], svc)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	client := &domain.Profile{}
	technician := &domain.Profile{}
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.ClientID,
		&ticket.TechnicianID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&client.Name,
		&client.Email,
		&client.PhotoURL,
		&technician.Name,
		&technician.Email,
		&technician.PhotoURL,
	); err != nil {
		return nil, err
	}
	client.ID = ticket.ClientID
	technician.ID = ticket.TechnicianID
	ticket.Client = client
	ticket.Technician = technician
	return &ticket, nil
}
