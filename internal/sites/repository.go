package sites

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists sites.
type Repository interface {
	Create(ctx context.Context, site Site) error
	Get(ctx context.Context, tenantID, id string) (Site, error)
	Update(ctx context.Context, site Site) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string) ([]Site, error)
}

type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, s Site) error {
	query := `INSERT INTO sites (id, tenant_id, name, slug, domain, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query, s.ID, s.TenantID, s.Name, s.Slug, s.Domain, s.CreatedAt, s.UpdatedAt)
	return mapPgError(err)
}

func (r *repo) Get(ctx context.Context, tenantID, id string) (Site, error) {
	query := `SELECT id, tenant_id, name, slug, domain, created_at, updated_at FROM sites WHERE tenant_id = $1 AND id = $2`
	var s Site
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&s.ID, &s.TenantID, &s.Name, &s.Slug, &s.Domain, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Site{}, ErrNotFound
	}
	return s, err
}

func (r *repo) Update(ctx context.Context, s Site) error {
	query := `UPDATE sites SET name = $1, slug = $2, domain = $3, updated_at = $4 WHERE tenant_id = $5 AND id = $6`
	tag, err := r.db.Exec(ctx, query, s.Name, s.Slug, s.Domain, s.UpdatedAt, s.TenantID, s.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sites WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) List(ctx context.Context, tenantID string) ([]Site, error) {
	query := `SELECT id, tenant_id, name, slug, domain, created_at, updated_at FROM sites WHERE tenant_id = $1 ORDER BY name`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.Slug, &s.Domain, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateSlug
	}
	return err
}
