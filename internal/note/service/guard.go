// Package service applies the owner filter to every note operation.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	identitydomain "notesmk/backend/internal/identity/domain"
	"notesmk/backend/internal/logging"
	"notesmk/backend/internal/note/domain"
	"notesmk/backend/internal/note/repository"
	"notesmk/backend/internal/policy/engine"
	"notesmk/backend/internal/telemetry"
)

var (
	// ErrValidation is returned when title or content is empty.
	ErrValidation = errors.New("title and content are required")
	// ErrNotFound is returned when no note with the id is owned by the caller.
	ErrNotFound = errors.New("note not found")
	// ErrUnauthenticated is returned when the identity names no account.
	ErrUnauthenticated = errors.New("authentication required")
)

// EventRecorder receives note events.
type EventRecorder interface {
	Record(ctx context.Context, ev telemetry.Event)
}

// Guard wraps note persistence with the owner filter derived from the caller identity.
type Guard struct {
	repo   repository.Repository
	policy engine.Evaluator
	events EventRecorder
	log    logging.Logger
	now    func() time.Time
}

// NewGuard returns a Guard. events and log may be nil.
func NewGuard(repo repository.Repository, policy engine.Evaluator, events EventRecorder, log logging.Logger) *Guard {
	if log == nil {
		log = logging.Nop()
	}
	return &Guard{
		repo:   repo,
		policy: policy,
		events: events,
		log:    log.With("component", "note_guard"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock. For tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// List returns the caller's notes in creation order.
func (g *Guard) List(ctx context.Context, who identitydomain.Identity) ([]*domain.Note, error) {
	if err := g.authorize(ctx, who, engine.ActionList, ""); err != nil {
		return nil, err
	}
	return g.repo.ListByOwner(ctx, who.AccountID)
}

// Create stores a note owned by the caller.
func (g *Guard) Create(ctx context.Context, who identitydomain.Identity, title, content string) (*domain.Note, error) {
	title, content, err := validate(title, content)
	if err != nil {
		return nil, err
	}
	if err := g.authorize(ctx, who, engine.ActionCreate, ""); err != nil {
		return nil, err
	}
	now := g.now()
	n := &domain.Note{
		ID:        uuid.New().String(),
		OwnerID:   who.AccountID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := g.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	g.record(ctx, telemetry.EventNoteCreated, who, n.ID)
	return n, nil
}

// Update replaces title and content of a note the caller owns. Any other note is ErrNotFound.
func (g *Guard) Update(ctx context.Context, who identitydomain.Identity, id, title, content string) (*domain.Note, error) {
	if _, err := g.owned(ctx, who, id, engine.ActionUpdate); err != nil {
		return nil, err
	}
	title, content, err := validate(title, content)
	if err != nil {
		return nil, err
	}
	n := &domain.Note{ID: id, OwnerID: who.AccountID, Title: title, Content: content, UpdatedAt: g.now()}
	ok, err := g.repo.Update(ctx, n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	g.record(ctx, telemetry.EventNoteUpdated, who, id)
	return n, nil
}

// Delete removes a note the caller owns. Any other note is ErrNotFound.
func (g *Guard) Delete(ctx context.Context, who identitydomain.Identity, id string) error {
	if _, err := g.owned(ctx, who, id, engine.ActionDelete); err != nil {
		return err
	}
	ok, err := g.repo.Delete(ctx, id, who.AccountID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	g.record(ctx, telemetry.EventNoteDeleted, who, id)
	return nil
}

// owned loads the note and checks the policy. Missing, malformed and foreign ids all yield ErrNotFound
// so a caller cannot discover the notes of other accounts.
func (g *Guard) owned(ctx context.Context, who identitydomain.Identity, id string, action engine.Action) (*domain.Note, error) {
	if !who.Valid() {
		return nil, ErrUnauthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	n, err := g.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	if err := g.authorize(ctx, who, action, n.OwnerID); err != nil {
		if errors.Is(err, errDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

var errDenied = errors.New("denied by policy")

func (g *Guard) authorize(ctx context.Context, who identitydomain.Identity, action engine.Action, ownerID string) error {
	if !who.Valid() {
		return ErrUnauthenticated
	}
	allowed, err := g.policy.Allow(ctx, engine.Request{SubjectID: who.AccountID, Action: action, OwnerID: ownerID})
	if err != nil {
		g.log.Error(ctx, "policy evaluation failed", "action", string(action), "error", err)
		return err
	}
	if !allowed {
		if ownerID == "" {
			return ErrUnauthenticated
		}
		g.log.Info(ctx, "note access denied", "action", string(action), "account_id", who.AccountID)
		return errDenied
	}
	return nil
}

func (g *Guard) record(ctx context.Context, t telemetry.EventType, who identitydomain.Identity, noteID string) {
	if g.events == nil {
		return
	}
	g.events.Record(ctx, telemetry.Event{Type: t, AccountID: who.AccountID, Email: who.Email, Resource: noteID})
}

func validate(title, content string) (string, string, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return "", "", ErrValidation
	}
	return title, content, nil
}
