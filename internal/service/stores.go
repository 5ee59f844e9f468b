package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/campushq/gatepass-backend/internal/model"
)

// Common service errors, mapped to API error codes by the handlers.
var (
	ErrNotAuthorized     = errors.New("caller lacks required role or ownership")
	ErrNotFound          = errors.New("record not found")
	ErrInvalidState      = errors.New("pass is no longer pending")
	ErrInvalidStatus     = errors.New("target status must be Approved or Rejected")
	ErrInvalidTimeWindow = errors.New("departure time must be before return time")
	ErrLastAdmin         = errors.New("cannot revoke the last remaining admin grant")
)

// UserStore persists account records keyed by immutable ID and unique
// normalized email.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// DirectoryStore persists admin grants keyed by normalized email. DeleteGrant
// refuses to remove the final grant and reports whether a row was deleted.
type DirectoryStore interface {
	GetGrant(ctx context.Context, email string) (*model.AdminGrant, error)
	UpsertGrant(ctx context.Context, email string) (*model.AdminGrant, error)
	DeleteGrant(ctx context.Context, email string) (bool, error)
	ListGrants(ctx context.Context) ([]model.AdminGrant, error)
}

// ProfileStore persists student profiles keyed by user ID.
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.StudentProfile, error)
	Upsert(ctx context.Context, p *model.StudentProfile) error
}

// PassStore persists gate passes with filtered, ordered queries.
type PassStore interface {
	Create(ctx context.Context, p *model.GatePass) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.GatePass, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.GatePass, error)
	ListAll(ctx context.Context) ([]model.GatePass, error)
	Decide(ctx context.Context, id uuid.UUID, status model.PassStatus, notes string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
