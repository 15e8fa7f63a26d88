package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ServiceRepository manages the priced service catalog.
type ServiceRepository interface {
	Create(ctx context.Context, svc *domain.Service) error
	Update(ctx context.Context, svc *domain.Service) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	// ListByIDs returns the services that exist among ids, in the order of ids.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Service, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Service, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type serviceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository builds the repository.
func NewServiceRepository(pool *pgxpool.Pool) ServiceRepository {
	return &serviceRepository{pool: pool}
}

const serviceColumns = `id, title, price_cents, active, is_default, created_at, updated_at`

func (r *serviceRepository) Create(ctx context.Context, svc *domain.Service) error {
	return insertService(ctx, r.pool, svc)
}

func (r *serviceRepository) Update(ctx context.Context, svc *domain.Service) error {
	const query = `
        UPDATE services SET title=$1, price_cents=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, svc.Title, svc.Price, svc.ID).Scan(&svc.UpdatedAt)
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	var svc domain.Service
	if err := scanService(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id=$1`, id), &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *serviceRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Service, error) {
	if len(ids) == 0 {
		return []domain.Service{}, nil
	}
	const query = `
        SELECT s.id, s.title, s.price_cents, s.active, s.is_default, s.created_at, s.updated_at
        FROM unnest($1::text[]::uuid[]) WITH ORDINALITY AS req(id, pos)
        JOIN services s ON s.id = req.id
        ORDER BY req.pos`
	return r.query(ctx, query, ids)
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return r.query(ctx, query)
}

func (r *serviceRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE services SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM services`).Scan(&count)
	return count, err
}

func (r *serviceRepository) query(ctx context.Context, query string, args ...any) ([]domain.Service, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Service{}
	for rows.Next() {
		var svc domain.Service
		if err := scanService(rows, &svc); err != nil {
			return nil, err
		}
		result = append(result, svc)
	}
	return result, rows.Err()
}

func insertService(ctx context.Context, q querier, svc *domain.Service) error {
	const query = `
        INSERT INTO services (title, price_cents, active, is_default)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return q.QueryRow(ctx, query,
		svc.Title,
		svc.Price,
		svc.Active,
		svc.IsDefault,
	).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
}

func scanService(row pgx.Row, svc *domain.Service) error {
	return row.Scan(
		&svc.ID,
		&svc.Title,
		&svc.Price,
		&svc.Active,
		&svc.IsDefault,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
}
