package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campushq/gatepass-backend/internal/events"
	"github.com/campushq/gatepass-backend/internal/metrics"
	"github.com/campushq/gatepass-backend/internal/model"
	"github.com/campushq/gatepass-backend/internal/repository"
)

// Default decision notes, matching the stored records of the legacy app.
const (
	defaultApprovalNote  = "Approved by admin."
	defaultRejectionNote = "Rejected by admin."
)

// PassService owns the gate-pass lifecycle: creation, decision, and removal.
// All authorization happens here against the directory, not in transport.
type PassService struct {
	passes    PassStore
	profiles  ProfileStore
	directory *DirectoryService
	bus       events.Bus
	log       zerolog.Logger
}

// NewPassService creates a new PassService.
func NewPassService(passes PassStore, profiles ProfileStore, directory *DirectoryService, bus events.Bus, log zerolog.Logger) *PassService {
	return &PassService{
		passes:    passes,
		profiles:  profiles,
		directory: directory,
		bus:       bus,
		log:       log.With().Str("component", "pass_service").Logger(),
	}
}

// Submit creates a new gate pass owned by the caller with status Pending and
// upserts the caller's profile so the submitted roll/department stick for the
// next form prefill.
func (s *PassService) Submit(ctx context.Context, sess Session, req model.SubmitPassRequest) (*model.GatePass, error) {
	if !req.DepartureTime.Before(req.ReturnTime) {
		return nil, ErrInvalidTimeWindow
	}

	pass := &model.GatePass{
		UserID:         sess.UserID,
		CreatedByEmail: model.NormalizeEmail(sess.Email),
		Name:           req.Name,
		Roll:           req.Roll,
		Department:     req.Department,
		Destination:    req.Destination,
		Reason:         req.Reason,
		DepartureTime:  req.DepartureTime,
		ReturnTime:     req.ReturnTime,
	}
	if err := s.passes.Create(ctx, pass); err != nil {
		return nil, fmt.Errorf("create pass: %w", err)
	}

	// The profile refresh must not fail an already stored submission.
	if err := s.profiles.Upsert(ctx, &model.StudentProfile{
		UserID:     sess.UserID,
		Name:       req.Name,
		Roll:       req.Roll,
		Department: req.Department,
		Email:      model.NormalizeEmail(sess.Email),
	}); err != nil {
		s.log.Warn().Err(err).
			Str("user_id", sess.UserID.String()).
			Msg("Profile upsert failed after submission")
	}

	s.publish(ctx, events.Event{Type: events.EventSubmitted, PassID: pass.ID.String()})
	metrics.PassesSubmitted.Inc()

	s.log.Info().
		Str("pass_id", pass.ID.String()).
		Str("user_id", sess.UserID.String()).
		Str("destination", pass.Destination).
		Msg("Gate pass submitted")
	return pass, nil
}

// Decide transitions a Pending pass to Approved or Rejected. Admin only.
// The update is conditional on the stored status still being Pending, so a
// second decision on the same pass fails with ErrInvalidState instead of
// silently overwriting the first.
func (s *PassService) Decide(ctx context.Context, sess Session, id uuid.UUID, status model.PassStatus, notes string) (*model.GatePass, error) {
	if s.directory.ResolveRole(ctx, sess.Email) != model.RoleAdmin {
		return nil, ErrNotAuthorized
	}
	if !status.Decided() {
		return nil, ErrInvalidStatus
	}
	if notes == "" {
		if status == model.PassStatusApproved {
			notes = defaultApprovalNote
		} else {
			notes = defaultRejectionNote
		}
	}

	updated, err := s.passes.Decide(ctx, id, status, notes)
	if err != nil {
		return nil, fmt.Errorf("decide pass: %w", err)
	}
	if !updated {
		// Distinguish a missing pass from one that is already decided.
		if _, err := s.passes.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get pass: %w", err)
		}
		return nil, ErrInvalidState
	}

	s.publish(ctx, events.Event{Type: events.EventDecided, PassID: id.String()})
	metrics.PassDecisions.WithLabelValues(string(status)).Inc()

	s.log.Info().
		Str("pass_id", id.String()).
		Str("admin", sess.Email).
		Str("status", string(status)).
		Msg("Gate pass decided")

	pass, err := s.passes.GetByID(ctx, id)
	if err != nil {
		// The pass can be removed between the update and this read.
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pass: %w", err)
	}
	return pass, nil
}

// Remove deletes a pass regardless of status. Allowed for the owner and for
// admins. Removing an already removed pass succeeds silently.
func (s *PassService) Remove(ctx context.Context, sess Session, id uuid.UUID) error {
	pass, err := s.passes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get pass: %w", err)
	}

	if pass.UserID != sess.UserID && s.directory.ResolveRole(ctx, sess.Email) != model.RoleAdmin {
		return ErrNotAuthorized
	}

	if _, err := s.passes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete pass: %w", err)
	}

	s.publish(ctx, events.Event{Type: events.EventRemoved, PassID: id.String()})

	s.log.Info().
		Str("pass_id", id.String()).
		Str("removed_by", sess.Email).
		Msg("Gate pass removed")
	return nil
}

// Get returns a single pass to its owner or an admin.
func (s *PassService) Get(ctx context.Context, sess Session, id uuid.UUID) (*model.GatePass, error) {
	pass, err := s.passes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pass: %w", err)
	}
	if pass.UserID != sess.UserID && s.directory.ResolveRole(ctx, sess.Email) != model.RoleAdmin {
		return nil, ErrNotAuthorized
	}
	return pass, nil
}

// ListForOwner returns the caller's passes, newest first.
func (s *PassService) ListForOwner(ctx context.Context, sess Session) ([]model.GatePass, error) {
	return s.passes.ListByUser(ctx, sess.UserID)
}

// ListAll returns every pass, newest first. Admin only.
func (s *PassService) ListAll(ctx context.Context, sess Session) ([]model.GatePass, error) {
	if s.directory.ResolveRole(ctx, sess.Email) != model.RoleAdmin {
		return nil, ErrNotAuthorized
	}
	return s.passes.ListAll(ctx)
}

// publish is best-effort: watchers refresh on the next event, and a failed
// notification must not fail a stored mutation.
func (s *PassService) publish(ctx context.Context, ev events.Event) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", string(ev.Type)).Msg("Event publish failed")
	}
}
