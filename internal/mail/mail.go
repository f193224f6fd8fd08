// Package mail delivers HTML messages. Three providers exist: SMTP (go-mail), a JSON HTTP mail API
// and an in-memory dev sender.
package mail

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a provider lacks required settings (host, API key).
var ErrNotConfigured = errors.New("mail: provider not configured")

// Receipt identifies an accepted message.
type Receipt struct {
	// MessageID is the provider message id, if any.
	MessageID string
}

// Sender sends one HTML message to one address.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) (*Receipt, error)
}
