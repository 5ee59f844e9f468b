package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushq/gatepass-backend/internal/model"
)

// ProfileRepository handles student profile data access.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Get retrieves the profile for a user.
func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*model.StudentProfile, error) {
	p := &model.StudentProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, name, roll, department, email, created_at, updated_at
		 FROM student_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Name, &p.Roll, &p.Department, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Upsert inserts the profile or refreshes its mutable fields. Profiles stick
// around for form prefill and are never deleted.
func (r *ProfileRepository) Upsert(ctx context.Context, p *model.StudentProfile) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO student_profiles (user_id, name, roll, department, email)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   name = EXCLUDED.name,
		   roll = EXCLUDED.roll,
		   department = EXCLUDED.department,
		   email = EXCLUDED.email,
		   updated_at = CURRENT_TIMESTAMP
		 RETURNING created_at, updated_at`,
		p.UserID, p.Name, p.Roll, p.Department, model.NormalizeEmail(p.Email),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}
