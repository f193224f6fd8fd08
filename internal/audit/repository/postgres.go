package repository

import (
	"context"
	"database/sql"
	"fmt"

	"notesmk/backend/internal/audit/domain"
)

const insertAuditLogSQL = `INSERT INTO audit_logs (id, account_id, email, action, resource, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// PostgresRepository stores audit logs in the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, insertAuditLogSQL,
		a.ID, nullString(a.AccountID), nullString(a.Email), a.Action, a.Resource, a.IP, nullString(a.Metadata), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit create: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
