package domain

import (
	"time"

	accountdomain "notesmk/backend/internal/account/domain"
)

// Identity is the authenticated caller, resolved from a session credential. It is passed
// explicitly to every protected operation.
type Identity struct {
	AccountID string
	Email     string
	Name      string
}

// Valid reports whether the identity names an account.
func (i Identity) Valid() bool { return i.AccountID != "" }

// FromAccount builds the identity of a.
func FromAccount(a *accountdomain.Account) Identity {
	return Identity{AccountID: a.ID, Email: a.Email, Name: a.Name}
}

// Session is a minted session credential with the account it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *accountdomain.Account
	// Created is true when the verification created the account.
	Created bool
}
