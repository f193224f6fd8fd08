package domain

import "time"

// Code is one issued verification code. Only the digest of the code value is stored.
type Code struct {
	// Seq is the store-assigned, monotonically increasing sequence number. Breaks ties between
	// codes created within the same timestamp.
	Seq       int64
	Email     string
	CodeHash  string
	CreatedAt time.Time
}

// ExpiresAt returns when the code stops being valid for the given lifetime.
func (c *Code) ExpiresAt(ttl time.Duration) time.Time {
	return c.CreatedAt.Add(ttl)
}

// ValidAt reports whether the code is still usable at now: its age must not exceed ttl.
func (c *Code) ValidAt(now time.Time, ttl time.Duration) bool {
	return !now.After(c.ExpiresAt(ttl))
}

// IssuedBy reports whether c was issued no later than o, ordering by creation time then sequence.
func (c *Code) IssuedBy(o *Code) bool {
	if !c.CreatedAt.Equal(o.CreatedAt) {
		return c.CreatedAt.Before(o.CreatedAt)
	}
	return c.Seq <= o.Seq
}
