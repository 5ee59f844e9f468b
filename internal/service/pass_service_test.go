package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/gatepass-backend/internal/events"
	"github.com/campushq/gatepass-backend/internal/model"
)

type passFixture struct {
	svc      *PassService
	passes   *fakePassStore
	profiles *fakeProfileStore
	grants   *fakeDirectoryStore
}

func newPassFixture(t *testing.T) *passFixture {
	t.Helper()
	grants := newFakeDirectoryStore()
	profiles := newFakeProfileStore()
	passes := newFakePassStore()
	directory := NewDirectoryService(grants, profiles, zerolog.Nop())
	return &passFixture{
		svc:      NewPassService(passes, profiles, directory, events.NewMemory(), zerolog.Nop()),
		passes:   passes,
		profiles: profiles,
		grants:   grants,
	}
}

func validSubmission() model.SubmitPassRequest {
	return model.SubmitPassRequest{
		Name:          "Alice",
		Roll:          "R-42",
		Department:    "CSE",
		Destination:   "City Hall",
		Reason:        "Errand",
		DepartureTime: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		ReturnTime:    time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC),
	}
}

func TestSubmitCreatesPendingPassOwnedBySubmitter(t *testing.T) {
	fx := newPassFixture(t)
	sess := Session{UserID: uuid.New(), Email: "alice@x.com"}

	pass, err := fx.svc.Submit(context.Background(), sess, validSubmission())
	require.NoError(t, err)

	assert.Equal(t, model.PassStatusPending, pass.Status)
	assert.Equal(t, sess.UserID, pass.UserID)
	assert.Equal(t, "alice@x.com", pass.CreatedByEmail)
	assert.Equal(t, "City Hall", pass.Destination)
	assert.False(t, pass.CreatedAt.IsZero())
	assert.Nil(t, pass.UpdatedAt)
}

func TestSubmitRejectsInvertedTimeWindow(t *testing.T) {
	fx := newPassFixture(t)
	sess := Session{UserID: uuid.New(), Email: "alice@x.com"}

	req := validSubmission()
	req.DepartureTime, req.ReturnTime = req.ReturnTime, req.DepartureTime
	_, err := fx.svc.Submit(context.Background(), sess, req)
	assert.ErrorIs(t, err, ErrInvalidTimeWindow)

	req.ReturnTime = req.DepartureTime // equal times are invalid too
	_, err = fx.svc.Submit(context.Background(), sess, req)
	assert.ErrorIs(t, err, ErrInvalidTimeWindow)
}

func TestSubmitUpsertsProfile(t *testing.T) {
	fx := newPassFixture(t)
	sess := Session{UserID: uuid.New(), Email: "Alice@X.com"}

	_, err := fx.svc.Submit(context.Background(), sess, validSubmission())
	require.NoError(t, err)

	profile, err := fx.profiles.Get(context.Background(), sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "R-42", profile.Roll)
	assert.Equal(t, "CSE", profile.Department)
	assert.Equal(t, "alice@x.com", profile.Email)
}

func TestDecideApprovesPendingPass(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}
	admin := adminSession(t, fx.grants, "admin@x.com")

	pass, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	decided, err := fx.svc.Decide(context.Background(), admin, pass.ID, model.PassStatusApproved, "Approved by admin.")
	require.NoError(t, err)
	assert.Equal(t, model.PassStatusApproved, decided.Status)
	assert.Equal(t, "Approved by admin.", decided.AdminNotes)
	require.NotNil(t, decided.UpdatedAt)

	// A second decision on the same pass must conflict, both ways.
	_, err = fx.svc.Decide(context.Background(), admin, pass.ID, model.PassStatusRejected, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = fx.svc.Decide(context.Background(), admin, pass.ID, model.PassStatusApproved, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDecideDefaultsNotes(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}
	admin := adminSession(t, fx.grants, "admin@x.com")

	pass, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	decided, err := fx.svc.Decide(context.Background(), admin, pass.ID, model.PassStatusRejected, "")
	require.NoError(t, err)
	assert.Equal(t, "Rejected by admin.", decided.AdminNotes)
}

func TestDecideRequiresAdmin(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}

	pass, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	// Not even the owner may decide their own pass.
	_, err = fx.svc.Decide(context.Background(), owner, pass.ID, model.PassStatusApproved, "")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDecideMissingPass(t *testing.T) {
	fx := newPassFixture(t)
	admin := adminSession(t, fx.grants, "admin@x.com")

	_, err := fx.svc.Decide(context.Background(), admin, uuid.New(), model.PassStatusApproved, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecidePassRemovedAfterUpdate(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}
	admin := adminSession(t, fx.grants, "admin@x.com")

	pass, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	// A racing removal lands between the decision update and the re-read.
	fx.passes.afterDecide = func() {
		_, err := fx.passes.Delete(context.Background(), pass.ID)
		require.NoError(t, err)
	}
	_, err = fx.svc.Decide(context.Background(), admin, pass.ID, model.PassStatusApproved, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecideRejectsPendingTarget(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}
	admin := adminSession(t, fx.grants, "admin@x.com")

	pass, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	_, err = fx.svc.Decide(context.Background(), admin, pass.ID, model.PassStatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRemoveByOwnerAndAdmin(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}
	admin := adminSession(t, fx.grants, "admin@x.com")

	first, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)
	second, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	require.NoError(t, fx.svc.Remove(context.Background(), owner, first.ID))
	require.NoError(t, fx.svc.Remove(context.Background(), admin, second.ID))

	remaining, err := fx.svc.ListForOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRemoveByStrangerFails(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}
	stranger := Session{UserID: uuid.New(), Email: "mallory@x.com"}

	pass, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	err = fx.svc.Remove(context.Background(), stranger, pass.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The record must survive the rejected attempt.
	got, err := fx.svc.Get(context.Background(), owner, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.ID, got.ID)
}

func TestRemoveMissingPassIsSilent(t *testing.T) {
	fx := newPassFixture(t)
	sess := Session{UserID: uuid.New(), Email: "alice@x.com"}

	assert.NoError(t, fx.svc.Remove(context.Background(), sess, uuid.New()))
}

func TestGetAuthorization(t *testing.T) {
	fx := newPassFixture(t)
	owner := Session{UserID: uuid.New(), Email: "alice@x.com"}
	admin := adminSession(t, fx.grants, "admin@x.com")
	stranger := Session{UserID: uuid.New(), Email: "mallory@x.com"}

	pass, err := fx.svc.Submit(context.Background(), owner, validSubmission())
	require.NoError(t, err)

	_, err = fx.svc.Get(context.Background(), owner, pass.ID)
	assert.NoError(t, err)
	_, err = fx.svc.Get(context.Background(), admin, pass.ID)
	assert.NoError(t, err)
	_, err = fx.svc.Get(context.Background(), stranger, pass.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestListForOwnerScopesAndOrders(t *testing.T) {
	fx := newPassFixture(t)
	alice := Session{UserID: uuid.New(), Email: "alice@x.com"}
	bob := Session{UserID: uuid.New(), Email: "bob@x.com"}

	_, err := fx.svc.Submit(context.Background(), alice, validSubmission())
	require.NoError(t, err)
	second, err := fx.svc.Submit(context.Background(), alice, validSubmission())
	require.NoError(t, err)
	_, err = fx.svc.Submit(context.Background(), bob, validSubmission())
	require.NoError(t, err)

	mine, err := fx.svc.ListForOwner(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID) // newest first
	for _, p := range mine {
		assert.Equal(t, alice.UserID, p.UserID)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	fx := newPassFixture(t)
	alice := Session{UserID: uuid.New(), Email: "alice@x.com"}
	admin := adminSession(t, fx.grants, "admin@x.com")

	_, err := fx.svc.Submit(context.Background(), alice, validSubmission())
	require.NoError(t, err)

	_, err = fx.svc.ListAll(context.Background(), alice)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	all, err := fx.svc.ListAll(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
