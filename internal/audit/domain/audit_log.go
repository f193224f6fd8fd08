package domain

import "time"

// AuditLog is one persisted security-relevant event (code request, signup, login, note mutation).
type AuditLog struct {
	ID string
	// AccountID is empty for events without a resolved account, e.g. a failed verification.
	AccountID string
	Email     string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
