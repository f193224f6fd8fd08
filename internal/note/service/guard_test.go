package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identitydomain "notesmk/backend/internal/identity/domain"
	"notesmk/backend/internal/note/domain"
	"notesmk/backend/internal/policy/engine"
	"notesmk/backend/internal/telemetry"
)

type memNoteRepo struct {
	mu    sync.Mutex
	seq   int64
	notes map[string]*domain.Note
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: make(map[string]*domain.Note)}
}

func (r *memNoteRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.notes {
		if n.OwnerID == ownerID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *memNoteRepo) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	c := *n
	return &c, nil
}

func (r *memNoteRepo) Create(ctx context.Context, n *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.Seq = r.seq
	c := *n
	r.notes[n.ID] = &c
	return nil
}

func (r *memNoteRepo) Update(ctx context.Context, n *domain.Note) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.notes[n.ID]
	if !ok || cur.OwnerID != n.OwnerID {
		return false, nil
	}
	cur.Title, cur.Content, cur.UpdatedAt = n.Title, n.Content, n.UpdatedAt
	n.Seq, n.CreatedAt = cur.Seq, cur.CreatedAt
	return true, nil
}

func (r *memNoteRepo) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.notes[id]
	if !ok || cur.OwnerID != ownerID {
		return false, nil
	}
	delete(r.notes, id)
	return true, nil
}

type memRecorder struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (m *memRecorder) Record(ctx context.Context, ev telemetry.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *memRecorder) types() []telemetry.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]telemetry.EventType, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

type errEvaluator struct{ err error }

func (e errEvaluator) Allow(ctx context.Context, req engine.Request) (bool, error) {
	return false, e.err
}

var (
	ann = identitydomain.Identity{AccountID: "acc-ann", Email: "ann@example.com", Name: "Ann"}
	bob = identitydomain.Identity{AccountID: "acc-bob", Email: "bob@example.com", Name: "Bob"}
)

func newTestGuard(t *testing.T) (*Guard, *memNoteRepo, *memRecorder) {
	t.Helper()
	ev, err := engine.NewOPAEvaluator(context.Background(), "")
	require.NoError(t, err)
	repo := newMemNoteRepo()
	rec := &memRecorder{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGuard(repo, ev, rec, nil).WithClock(func() time.Time { return fixed })
	return g, repo, rec
}

func TestGuard_CreateAndList(t *testing.T) {
	ctx := context.Background()
	g, _, rec := newTestGuard(t)

	n, err := g.Create(ctx, ann, "  Groceries ", "milk")
	require.NoError(t, err)
	_, err = uuid.Parse(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, ann.AccountID, n.OwnerID)
	assert.Equal(t, int64(1), n.Seq)

	second, err := g.Create(ctx, ann, "Todo", "call mom")
	require.NoError(t, err)

	list, err := g.List(ctx, ann)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, n.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, []telemetry.EventType{telemetry.EventNoteCreated, telemetry.EventNoteCreated}, rec.types())
}

func TestGuard_CreateValidation(t *testing.T) {
	ctx := context.Background()
	g, repo, _ := newTestGuard(t)

	for _, tc := range []struct{ title, content string }{
		{"", "body"},
		{"title", ""},
		{"   ", "\t"},
	} {
		_, err := g.Create(ctx, ann, tc.title, tc.content)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Empty(t, repo.notes)
}

func TestGuard_ListIsolatesOwners(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGuard(t)

	_, err := g.Create(ctx, ann, "ann's", "secret")
	require.NoError(t, err)

	list, err := g.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGuard_UpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	g, _, rec := newTestGuard(t)

	n, err := g.Create(ctx, ann, "draft", "v1")
	require.NoError(t, err)

	updated, err := g.Update(ctx, ann, n.ID, "final", "v2")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, n.Seq, updated.Seq)

	list, err := g.List(ctx, ann)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "final", list[0].Title)
	assert.Equal(t, "v2", list[0].Content)
	assert.Contains(t, rec.types(), telemetry.EventNoteUpdated)
}

func TestGuard_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGuard(t)

	n, err := g.Create(ctx, ann, "draft", "v1")
	require.NoError(t, err)
	_, err = g.Update(ctx, ann, n.ID, "", "v2")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGuard_ForeignNoteIsNotFound(t *testing.T) {
	ctx := context.Background()
	g, repo, rec := newTestGuard(t)

	n, err := g.Create(ctx, ann, "mine", "hands off")
	require.NoError(t, err)

	_, err = g.Update(ctx, bob, n.ID, "stolen", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	err = g.Delete(ctx, bob, n.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, _ := repo.GetByID(ctx, n.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "mine", stored.Title)
	assert.Equal(t, []telemetry.EventType{telemetry.EventNoteCreated}, rec.types())
}

func TestGuard_UnknownOrMalformedID(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGuard(t)

	for _, id := range []string{uuid.New().String(), "not-a-uuid", ""} {
		_, err := g.Update(ctx, ann, id, "t", "c")
		assert.ErrorIs(t, err, ErrNotFound, id)
		assert.ErrorIs(t, g.Delete(ctx, ann, id), ErrNotFound, id)
	}
}

func TestGuard_DeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	g, _, rec := newTestGuard(t)

	keep, err := g.Create(ctx, ann, "keep", "a")
	require.NoError(t, err)
	gone, err := g.Create(ctx, ann, "gone", "b")
	require.NoError(t, err)

	require.NoError(t, g.Delete(ctx, ann, gone.ID))
	assert.ErrorIs(t, g.Delete(ctx, ann, gone.ID), ErrNotFound)

	list, err := g.List(ctx, ann)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	assert.Contains(t, rec.types(), telemetry.EventNoteDeleted)
}

func TestGuard_Unauthenticated(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGuard(t)

	_, err := g.List(ctx, identitydomain.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = g.Create(ctx, identitydomain.Identity{}, "t", "c")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGuard_PolicyError(t *testing.T) {
	boom := errors.New("policy down")
	g := NewGuard(newMemNoteRepo(), errEvaluator{err: boom}, nil, nil)

	_, err := g.List(context.Background(), ann)
	assert.ErrorIs(t, err, boom)
}
