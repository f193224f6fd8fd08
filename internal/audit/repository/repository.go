package repository

import (
	"context"

	"notesmk/backend/internal/audit/domain"
)

// Repository appends audit rows. Rows are never updated; reads happen in SQL tooling, not the API.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
}
