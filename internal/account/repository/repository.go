package repository

import (
	"context"
	"errors"

	"notesmk/backend/internal/account/domain"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("account email already exists")

// Repository defines persistence for accounts. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}
