package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushq/gatepass-backend/internal/model"
)

// DirectoryRepository handles admin grant records, keyed by normalized email.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// GetGrant retrieves the admin grant for a normalized email.
func (r *DirectoryRepository) GetGrant(ctx context.Context, email string) (*model.AdminGrant, error) {
	g := &model.AdminGrant{}
	err := r.pool.QueryRow(ctx,
		`SELECT email, role, added_at FROM admin_grants WHERE email = $1`,
		model.NormalizeEmail(email),
	).Scan(&g.Email, &g.Role, &g.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// UpsertGrant inserts an admin grant or refreshes added_at if it exists.
// Re-granting an existing admin is idempotent.
func (r *DirectoryRepository) UpsertGrant(ctx context.Context, email string) (*model.AdminGrant, error) {
	g := &model.AdminGrant{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admin_grants (email, role, added_at)
		 VALUES ($1, 'admin', CURRENT_TIMESTAMP)
		 ON CONFLICT (email) DO UPDATE SET added_at = CURRENT_TIMESTAMP
		 RETURNING email, role, added_at`,
		model.NormalizeEmail(email),
	).Scan(&g.Email, &g.Role, &g.AddedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGrant removes the admin grant for a normalized email, reporting
// whether a row was deleted. The delete is conditional on another grant
// remaining, so racing revokes can never empty the directory.
func (r *DirectoryRepository) DeleteGrant(ctx context.Context, email string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM admin_grants
		 WHERE email = $1 AND (SELECT COUNT(*) FROM admin_grants) > 1`,
		model.NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListGrants retrieves all admin grants oldest-first.
func (r *DirectoryRepository) ListGrants(ctx context.Context) ([]model.AdminGrant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email, role, added_at FROM admin_grants ORDER BY added_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []model.AdminGrant
	for rows.Next() {
		var g model.AdminGrant
		if err := rows.Scan(&g.Email, &g.Role, &g.AddedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

