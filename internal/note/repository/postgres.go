package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"notesmk/backend/internal/note/domain"
)

const (
	noteColumns = `id, owner_id, title, content, seq, created_at, updated_at`

	listNotesByOwnerSQL = `SELECT ` + noteColumns + ` FROM notes WHERE owner_id = $1 ORDER BY seq ASC`
	getNoteSQL          = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	insertNoteSQL       = `INSERT INTO notes (id, owner_id, title, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING seq`
	updateNoteSQL = `UPDATE notes SET title = $3, content = $4, updated_at = $5
WHERE id = $1 AND owner_id = $2
RETURNING seq, created_at`
	deleteNoteSQL = `DELETE FROM notes WHERE id = $1 AND owner_id = $2`
)

// PostgresRepository stores notes in the notes table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a note repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByOwner returns the owner's notes in creation order.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, listNotesByOwnerSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("note list: %w", err)
	}
	defer rows.Close()
	out := make([]*domain.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("note list: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("note list: %w", err)
	}
	return out, nil
}

// GetByID returns the note for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx, getNoteSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("note get: %w", err)
	}
	return n, nil
}

// Create inserts the note and sets n.Seq.
func (r *PostgresRepository) Create(ctx context.Context, n *domain.Note) error {
	err := r.db.QueryRowContext(ctx, insertNoteSQL, n.ID, n.OwnerID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt).Scan(&n.Seq)
	if err != nil {
		return fmt.Errorf("note create: %w", err)
	}
	return nil
}

// Update replaces title and content of the note owned by n.OwnerID and fills Seq and CreatedAt.
func (r *PostgresRepository) Update(ctx context.Context, n *domain.Note) (bool, error) {
	err := r.db.QueryRowContext(ctx, updateNoteSQL, n.ID, n.OwnerID, n.Title, n.Content, n.UpdatedAt).Scan(&n.Seq, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("note update: %w", err)
	}
	return true, nil
}

// Delete removes the note owned by ownerID.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteNoteSQL, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("note delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("note delete: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*domain.Note, error) {
	var n domain.Note
	if err := s.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Seq, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
