package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campushq/gatepass-backend/internal/model"
	"github.com/campushq/gatepass-backend/internal/repository"
)

// In-memory store fakes. They mirror the repository semantics: sentinel
// errors for missing records, conditional decide, ordered lists.

type fakeDirectoryStore struct {
	mu     sync.Mutex
	grants map[string]model.AdminGrant
	getErr error

	// beforeDelete runs ahead of DeleteGrant to interleave a racing mutation.
	beforeDelete func()
}

func newFakeDirectoryStore() *fakeDirectoryStore {
	return &fakeDirectoryStore{grants: make(map[string]model.AdminGrant)}
}

func (f *fakeDirectoryStore) GetGrant(_ context.Context, email string) (*model.AdminGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	g, ok := f.grants[model.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (f *fakeDirectoryStore) UpsertGrant(_ context.Context, email string) (*model.AdminGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := model.AdminGrant{Email: model.NormalizeEmail(email), Role: "admin", AddedAt: time.Now()}
	f.grants[g.Email] = g
	return &g, nil
}

func (f *fakeDirectoryStore) DeleteGrant(_ context.Context, email string) (bool, error) {
	if f.beforeDelete != nil {
		f.beforeDelete()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	normalized := model.NormalizeEmail(email)
	if _, ok := f.grants[normalized]; !ok {
		return false, nil
	}
	if len(f.grants) <= 1 {
		return false, nil
	}
	delete(f.grants, normalized)
	return true, nil
}

func (f *fakeDirectoryStore) ListGrants(_ context.Context) ([]model.AdminGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grants := make([]model.AdminGrant, 0, len(f.grants))
	for _, g := range f.grants {
		grants = append(grants, g)
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].AddedAt.Before(grants[j].AddedAt) })
	return grants, nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]model.StudentProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[uuid.UUID]model.StudentProfile)}
}

func (f *fakeProfileStore) Get(_ context.Context, userID uuid.UUID) (*model.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfileStore) Upsert(_ context.Context, p *model.StudentProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.profiles[p.UserID]
	if ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	f.profiles[p.UserID] = *p
	return nil
}

type fakePassStore struct {
	mu        sync.Mutex
	passes    map[uuid.UUID]model.GatePass
	seq       int
	listCalls int
	listErr   error

	// afterDecide runs after a successful decide to interleave a racing mutation.
	afterDecide func()
}

func newFakePassStore() *fakePassStore {
	return &fakePassStore{passes: make(map[uuid.UUID]model.GatePass)}
}

func (f *fakePassStore) Create(_ context.Context, p *model.GatePass) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = uuid.New()
	p.Status = model.PassStatusPending
	p.AdminNotes = ""
	// Sequence-spaced timestamps keep ordering deterministic in tests.
	p.CreatedAt = time.Unix(int64(f.seq), 0)
	f.passes[p.ID] = *p
	return nil
}

func (f *fakePassStore) GetByID(_ context.Context, id uuid.UUID) (*model.GatePass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.passes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakePassStore) ListByUser(_ context.Context, userID uuid.UUID) ([]model.GatePass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.GatePass
	for _, p := range f.passes {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakePassStore) ListAll(_ context.Context) ([]model.GatePass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.GatePass, 0, len(f.passes))
	for _, p := range f.passes {
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakePassStore) Decide(_ context.Context, id uuid.UUID, status model.PassStatus, notes string) (bool, error) {
	f.mu.Lock()
	p, ok := f.passes[id]
	if !ok || p.Status != model.PassStatusPending {
		f.mu.Unlock()
		return false, nil
	}
	now := time.Now()
	p.Status = status
	p.AdminNotes = notes
	p.UpdatedAt = &now
	f.passes[id] = p
	f.mu.Unlock()

	if f.afterDecide != nil {
		f.afterDecide()
	}
	return true, nil
}

func (f *fakePassStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passes[id]; !ok {
		return false, nil
	}
	delete(f.passes, id)
	return true, nil
}

func (f *fakePassStore) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakePassStore) listCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func sortNewestFirst(passes []model.GatePass) {
	sort.Slice(passes, func(i, j int) bool {
		return passes[i].CreatedAt.After(passes[j].CreatedAt)
	})
}
