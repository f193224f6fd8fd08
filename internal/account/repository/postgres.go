package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"notesmk/backend/internal/account/domain"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const (
	accountColumns = `id, name, email, date_of_birth, created_at`

	getAccountByIDSQL    = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	getAccountByEmailSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	insertAccountSQL     = `INSERT INTO accounts (id, name, email, date_of_birth, created_at) VALUES ($1, $2, $3, $4, $5)`
)

// PostgresRepository stores accounts in the accounts table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the account for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, getAccountByIDSQL, id)
}

// GetByEmail returns the account for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, getAccountByEmailSQL, email)
}

// Create inserts a. Returns ErrDuplicateEmail when the email is already registered.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx, insertAccountSQL, a.ID, a.Name, a.Email, a.DateOfBirth, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("account create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Name, &a.Email, &a.DateOfBirth, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("account get: %w", err)
	}
	return &a, nil
}
