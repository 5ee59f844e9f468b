package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushq/gatepass-backend/internal/model"
)

const gatePassColumns = `id, user_id, created_by_email, name, roll, department,
	destination, reason, departure_time, return_time, status, admin_notes,
	created_at, updated_at`

// GatePassRepository handles gate-pass data access.
type GatePassRepository struct {
	pool *pgxpool.Pool
}

// NewGatePassRepository creates a new GatePassRepository.
func NewGatePassRepository(pool *pgxpool.Pool) *GatePassRepository {
	return &GatePassRepository{pool: pool}
}

func scanGatePass(row pgx.Row, p *model.GatePass) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.CreatedByEmail, &p.Name, &p.Roll, &p.Department,
		&p.Destination, &p.Reason, &p.DepartureTime, &p.ReturnTime,
		&p.Status, &p.AdminNotes, &p.CreatedAt, &p.UpdatedAt,
	)
}

// Create inserts a new gate pass. Status, notes, and timestamps are owned by
// the database defaults; callers only supply the factual fields.
func (r *GatePassRepository) Create(ctx context.Context, p *model.GatePass) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO gate_passes
		   (user_id, created_by_email, name, roll, department, destination,
		    reason, departure_time, return_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, status, admin_notes, created_at`,
		p.UserID, p.CreatedByEmail, p.Name, p.Roll, p.Department,
		p.Destination, p.Reason, p.DepartureTime, p.ReturnTime,
	).Scan(&p.ID, &p.Status, &p.AdminNotes, &p.CreatedAt)
}

// GetByID retrieves a gate pass by ID.
func (r *GatePassRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GatePass, error) {
	p := &model.GatePass{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+gatePassColumns+` FROM gate_passes WHERE id = $1`, id)
	if err := scanGatePass(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByUser retrieves a user's gate passes, newest first.
func (r *GatePassRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.GatePass, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+gatePassColumns+` FROM gate_passes
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGatePasses(rows)
}

// ListAll retrieves every gate pass, newest first.
func (r *GatePassRepository) ListAll(ctx context.Context) ([]model.GatePass, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+gatePassColumns+` FROM gate_passes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGatePasses(rows)
}

func collectGatePasses(rows pgx.Rows) ([]model.GatePass, error) {
	var passes []model.GatePass
	for rows.Next() {
		var p model.GatePass
		if err := scanGatePass(rows, &p); err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// Decide applies an admin decision as a conditional update: the row is only
// touched while it is still Pending, so racing admins cannot overwrite each
// other's decision. Returns false if the pass was not Pending anymore.
func (r *GatePassRepository) Decide(ctx context.Context, id uuid.UUID, status model.PassStatus, notes string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE gate_passes
		 SET status = $1, admin_notes = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3 AND status = 'Pending'`,
		status, notes, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a gate pass regardless of status. Deleting a missing pass
// reports false without error.
func (r *GatePassRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gate_passes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeDecidedBefore deletes decided passes created before the cutoff.
// Pending passes are never purged.
func (r *GatePassRepository) PurgeDecidedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM gate_passes
		 WHERE status IN ('Approved', 'Rejected') AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
