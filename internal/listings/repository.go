package listings

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists listings.
type Repository interface {
	Create(ctx context.Context, listing Listing) error
	Get(ctx context.Context, tenantID, id string) (Listing, error)
	Update(ctx context.Context, listing Listing) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filters ListFilters) ([]Listing, error)
}

type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repo{db: db}
}

const listingColumns = `id, tenant_id, site_id, title, slug, category, description, status, created_at, updated_at`

func (r *repo) Create(ctx context.Context, l Listing) error {
	query := `INSERT INTO listings (id, tenant_id, site_id, title, slug, category, description, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		l.ID, l.TenantID, l.SiteID, l.Title, l.Slug, l.Category, l.Description, l.Status, l.CreatedAt, l.UpdatedAt)
	return mapPgError(err)
}

func (r *repo) Get(ctx context.Context, tenantID, id string) (Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE tenant_id = $1 AND id = $2`
	var l Listing
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&l.ID, &l.TenantID, &l.SiteID, &l.Title, &l.Slug, &l.Category, &l.Description, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	return l, err
}

func (r *repo) Update(ctx context.Context, l Listing) error {
	query := `UPDATE listings SET title = $1, slug = $2, category = $3, description = $4, status = $5, updated_at = $6
	          WHERE tenant_id = $7 AND id = $8`
	tag, err := r.db.Exec(ctx, query,
		l.Title, l.Slug, l.Category, l.Description, l.Status, l.UpdatedAt, l.TenantID, l.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM listings WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) List(ctx context.Context, tenantID string, filters ListFilters) ([]Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if filters.SiteID != "" {
		args = append(args, filters.SiteID)
		query += ` AND site_id = $` + strconv.Itoa(len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		if filters.Page > 1 {
			args = append(args, (filters.Page-1)*filters.Limit)
			query += ` OFFSET $` + strconv.Itoa(len(args))
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.TenantID, &l.SiteID, &l.Title, &l.Slug, &l.Category, &l.Description, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// mapPgError converts unique violations to the domain sentinel.
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
