// Package devotp keeps the last plain code per email in memory so local clients can read it back
// through GET /dev/otp. Only wired when DEV_OTP_ENABLED is true, which is refused in production.
package devotp

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store holds the last plain code per email for dev-only retrieval.
type Store interface {
	// Put records code for email until expiresAt, replacing any earlier code.
	Put(ctx context.Context, email, code string, expiresAt time.Time)
	// Get returns the code for email if present and not expired.
	Get(ctx context.Context, email string) (code string, ok bool)
	// Forget drops the entry for email. Called once the codes for email are purged.
	Forget(ctx context.Context, email string)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used for expiry. For tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.nowF = now
	return s
}

func key(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Put records code for email until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, email, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key(email)] = entry{code: code, expiresAt: expiresAt}
}

// Get returns the code for email if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, email string) (string, bool) {
	k := key(email)
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if s.nowF().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.m, k)
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}

// Forget drops the entry for email.
func (s *MemoryStore) Forget(ctx context.Context, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key(email))
}
