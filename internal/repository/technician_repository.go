package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TechnicianRepository reads the technician directory together with open loads.
type TechnicianRepository interface {
	// List returns every technician ordered by creation, oldest first.
	List(ctx context.Context) ([]domain.Technician, error)
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	UpdateAvailability(ctx context.Context, id string, slots []string) error
	Delete(ctx context.Context, id string) error
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianLoadQuery = `
        SELECT u.id, u.name, u.email, u.password_hash, u.role, u.photo_url, u.availability,
               u.created_at, u.updated_at,
               COUNT(t.id) FILTER (WHERE t.status IN ('open', 'in_progress'))
        FROM users u
        LEFT JOIN tickets t ON t.technician_id = u.id
        WHERE u.role = 'technician' %s
        GROUP BY u.id
        ORDER BY u.created_at ASC, u.id ASC`

func (r *technicianRepository) List(ctx context.Context) ([]domain.Technician, error) {
	return listTechnicians(ctx, r.pool, "", nil)
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	techs, err := listTechnicians(ctx, r.pool, "AND u.id = $1", []any{id})
	if err != nil {
		return nil, err
	}
	if len(techs) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &techs[0], nil
}

func (r *technicianRepository) UpdateAvailability(ctx context.Context, id string, slots []string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET availability=$1, updated_at=NOW() WHERE id=$2 AND role='technician'`, slots, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1 AND role='technician'`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func listTechnicians(ctx context.Context, q querier, where string, args []any) ([]domain.Technician, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(technicianLoadQuery, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Technician{}
	for rows.Next() {
		var tech domain.Technician
		if err := rows.Scan(
			&tech.ID,
			&tech.Name,
			&tech.Email,
			&tech.PasswordHash,
			&tech.Role,
			&tech.PhotoURL,
			&tech.Availability,
			&tech.CreatedAt,
			&tech.UpdatedAt,
			&tech.OpenLoad,
		); err != nil {
			return nil, err
		}
		result = append(result, tech)
	}
	return result, rows.Err()
}
