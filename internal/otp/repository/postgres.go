package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notesmk/backend/internal/otp/domain"
)

const (
	insertCodeSQL = `INSERT INTO otp_codes (email, code_hash, created_at)
VALUES ($1, $2, $3)
RETURNING seq`

	mostRecentValidSQL = `SELECT seq, email, code_hash, created_at
FROM otp_codes
WHERE email = $1 AND created_at >= $2
ORDER BY created_at DESC, seq DESC
LIMIT 1`

	activeCodeExistsSQL = `SELECT EXISTS (
	SELECT 1 FROM otp_codes WHERE code_hash = $1 AND created_at >= $2
)`

	// consumeSQL removes the matched code and every older code for the email. Codes issued after
	// the match survive. Under concurrent consumers only one DELETE returns the matched row.
	consumeSQL = `WITH purged AS (
	DELETE FROM otp_codes
	WHERE email = $1 AND (created_at < $3 OR (created_at = $3 AND seq <= $2))
	RETURNING seq
)
SELECT EXISTS (SELECT 1 FROM purged WHERE seq = $2)`

	deleteExpiredSQL = `DELETE FROM otp_codes WHERE created_at < $1`
)

// PostgresRepository stores codes in the otp_codes table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a code repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Put inserts the code and sets c.Seq from the table sequence.
func (r *PostgresRepository) Put(ctx context.Context, c *domain.Code) error {
	if err := r.db.QueryRowContext(ctx, insertCodeSQL, c.Email, c.CodeHash, c.CreatedAt).Scan(&c.Seq); err != nil {
		return fmt.Errorf("otp put: %w", err)
	}
	return nil
}

// MostRecentValid returns the newest unexpired code for email, or nil if there is none.
func (r *PostgresRepository) MostRecentValid(ctx context.Context, email string, validAfter time.Time) (*domain.Code, error) {
	var c domain.Code
	err := r.db.QueryRowContext(ctx, mostRecentValidSQL, email, validAfter).
		Scan(&c.Seq, &c.Email, &c.CodeHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("otp most recent: %w", err)
	}
	return &c, nil
}

// ActiveCodeExists reports whether an unexpired code with codeHash exists for any email.
func (r *PostgresRepository) ActiveCodeExists(ctx context.Context, codeHash string, validAfter time.Time) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, activeCodeExistsSQL, codeHash, validAfter).Scan(&exists); err != nil {
		return false, fmt.Errorf("otp exists: %w", err)
	}
	return exists, nil
}

// Consume purges c and the older codes of its email, reporting whether this call removed c.
func (r *PostgresRepository) Consume(ctx context.Context, c *domain.Code) (bool, error) {
	var claimed bool
	if err := r.db.QueryRowContext(ctx, consumeSQL, c.Email, c.Seq, c.CreatedAt).Scan(&claimed); err != nil {
		return false, fmt.Errorf("otp purge: %w", err)
	}
	return claimed, nil
}

// DeleteExpired removes codes created before the cutoff.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.exec(ctx, "otp sweep", deleteExpiredSQL, before)
}

func (r *PostgresRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
