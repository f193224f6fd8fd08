package domain

import "time"

// Note is a short text note with exactly one owner.
type Note struct {
	ID      string
	OwnerID string
	Title   string
	Content string
	// Seq is the server-assigned creation order.
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
