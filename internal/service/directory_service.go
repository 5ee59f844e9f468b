package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campushq/gatepass-backend/internal/model"
	"github.com/campushq/gatepass-backend/internal/repository"
)

// DirectoryService resolves roles and manages admin grants and profiles.
type DirectoryService struct {
	grants   DirectoryStore
	profiles ProfileStore
	log      zerolog.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(grants DirectoryStore, profiles ProfileStore, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{
		grants:   grants,
		profiles: profiles,
		log:      log.With().Str("component", "directory_service").Logger(),
	}
}

// ResolveRole maps an identity's email to Admin or Student. The email is
// normalized before lookup, so case and surrounding whitespace never matter.
// A store failure degrades to Student: privilege fails closed, usability
// stays open, and the failure is logged rather than surfaced.
func (s *DirectoryService) ResolveRole(ctx context.Context, email string) model.Role {
	_, err := s.grants.GetGrant(ctx, model.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Str("email", email).Msg("Role lookup failed, treating as student")
		}
		return model.RoleStudent
	}
	return model.RoleAdmin
}

// requireAdmin returns ErrNotAuthorized unless the session resolves to Admin.
func (s *DirectoryService) requireAdmin(ctx context.Context, sess Session) error {
	if s.ResolveRole(ctx, sess.Email) != model.RoleAdmin {
		return ErrNotAuthorized
	}
	return nil
}

// GrantAdmin marks an email as an admin. Only admins may grant; re-granting
// is idempotent and refreshes the grant timestamp.
func (s *DirectoryService) GrantAdmin(ctx context.Context, sess Session, email string) (*model.AdminGrant, error) {
	if err := s.requireAdmin(ctx, sess); err != nil {
		return nil, err
	}

	grant, err := s.grants.UpsertGrant(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("upsert grant: %w", err)
	}

	s.log.Info().
		Str("granted_by", sess.Email).
		Str("email", grant.Email).
		Msg("Admin grant added")
	return grant, nil
}

// RevokeAdmin removes an admin grant. Revoking a missing grant succeeds
// silently. Revoking the last remaining grant is refused: a directory with
// zero admins could never be repaired through the API.
func (s *DirectoryService) RevokeAdmin(ctx context.Context, sess Session, email string) error {
	if err := s.requireAdmin(ctx, sess); err != nil {
		return err
	}

	normalized := model.NormalizeEmail(email)
	if _, err := s.grants.GetGrant(ctx, normalized); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get grant: %w", err)
	}

	// The delete is conditional in the store: it only removes the grant while
	// another one remains, so racing revokes cannot empty the directory.
	deleted, err := s.grants.DeleteGrant(ctx, normalized)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	if !deleted {
		// Either the guard held, or a racing revoke got there first. In the
		// latter case the grant is already gone and revocation is idempotent.
		if _, err := s.grants.GetGrant(ctx, normalized); errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return ErrLastAdmin
	}

	s.log.Info().
		Str("revoked_by", sess.Email).
		Str("email", normalized).
		Msg("Admin grant removed")
	return nil
}

// ListAdmins returns every admin grant. Admin only.
func (s *DirectoryService) ListAdmins(ctx context.Context, sess Session) ([]model.AdminGrant, error) {
	if err := s.requireAdmin(ctx, sess); err != nil {
		return nil, err
	}
	return s.grants.ListGrants(ctx)
}

// GetProfile returns the caller's student profile for form prefill.
func (s *DirectoryService) GetProfile(ctx context.Context, sess Session) (*model.StudentProfile, error) {
	profile, err := s.profiles.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}
