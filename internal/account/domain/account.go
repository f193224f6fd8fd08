package domain

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a date of birth.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidDateOfBirth is returned when a date of birth cannot be parsed or lies in the future.
	ErrInvalidDateOfBirth = errors.New("invalid date of birth")
	// ErrNameRequired is returned when an account has no display name.
	ErrNameRequired = errors.New("name is required")
	// ErrEmailRequired is returned when an account has no email.
	ErrEmailRequired = errors.New("email is required")
)

// Account is a user of the notes app. Email is the unique key.
type Account struct {
	ID          string
	Name        string
	Email       string
	DateOfBirth time.Time
	CreatedAt   time.Time
}

// Validate checks the fields required at creation.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmailRequired
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrNameRequired
	}
	if a.DateOfBirth.IsZero() {
		return ErrInvalidDateOfBirth
	}
	return nil
}

// ParseDateOfBirth accepts YYYY-MM-DD or a full RFC 3339 timestamp and returns the UTC date.
// Dates after now are rejected.
func ParseDateOfBirth(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		ts, err2 := time.Parse(time.RFC3339, s)
		if err2 != nil {
			return time.Time{}, ErrInvalidDateOfBirth
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	if t.After(now) {
		return time.Time{}, ErrInvalidDateOfBirth
	}
	return t, nil
}
