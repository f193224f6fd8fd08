package repository

import (
	"context"

	"notesmk/backend/internal/note/domain"
)

// Repository defines persistence for notes. Mutations are scoped by owner; a mutation that matches
// no row owned by ownerID reports false.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Note, error)
	// GetByID returns the note regardless of owner, or nil.
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	// Create inserts n and sets n.Seq.
	Create(ctx context.Context, n *domain.Note) error
	Update(ctx context.Context, n *domain.Note) (bool, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}
