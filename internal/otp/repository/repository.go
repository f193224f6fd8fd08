package repository

import (
	"context"
	"time"

	"notesmk/backend/internal/otp/domain"
)

// Repository defines persistence for verification codes.
// validAfter is the oldest creation time still considered unexpired (now minus the code TTL).
type Repository interface {
	// Put inserts c and sets c.Seq. It never deduplicates by email.
	Put(ctx context.Context, c *domain.Code) error
	// MostRecentValid returns the newest code for email created at or after validAfter,
	// ordered by creation time then sequence. Returns nil if there is none.
	MostRecentValid(ctx context.Context, email string, validAfter time.Time) (*domain.Code, error)
	// ActiveCodeExists reports whether any email holds an unexpired code with this digest.
	ActiveCodeExists(ctx context.Context, codeHash string, validAfter time.Time) (bool, error)
	// Consume deletes c and every code of c.Email issued before it, in MostRecentValid order.
	// It reports false when c was already gone, i.e. another verification consumed it first.
	Consume(ctx context.Context, c *domain.Code) (bool, error)
	// DeleteExpired removes codes created before the cutoff and returns how many rows were deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
