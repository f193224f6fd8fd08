// Package service maps email addresses to accounts.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"notesmk/backend/internal/account/domain"
	"notesmk/backend/internal/account/repository"
)

// ErrDuplicateAccount is returned by Create when an account with the email already exists.
var ErrDuplicateAccount = errors.New("account already exists")

// NormalizeEmail trims and lowercases an address. All account and code lookups use this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Resolver looks up and creates accounts by email. It never checks codes.
type Resolver struct {
	repo repository.Repository
	now  func() time.Time
}

// NewResolver returns a Resolver over repo.
func NewResolver(repo repository.Repository) *Resolver {
	return &Resolver{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the creation clock. For tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve returns the account with exactly this email, or nil.
func (r *Resolver) Resolve(ctx context.Context, email string) (*domain.Account, error) {
	return r.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// ByID returns the account for id, or nil.
func (r *Resolver) ByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.repo.GetByID(ctx, id)
}

// Create stores a new account. Fails with ErrDuplicateAccount when the email is taken, including
// when a concurrent Create wins the unique index.
func (r *Resolver) Create(ctx context.Context, email, name string, dob time.Time) (*domain.Account, error) {
	email = NormalizeEmail(email)
	existing, err := r.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}
	a := &domain.Account{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Email:       email,
		DateOfBirth: dob,
		CreatedAt:   r.now(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := r.repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return a, nil
}
