package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (r *recordingExpirer) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, before)
	return r.n, r.err
}

func (r *recordingExpirer) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

func TestSweeper_SweepOnceUsesTTLCutoff(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &recordingExpirer{n: 3}
	s := NewSweeper(store, DefaultTTL, time.Minute, nil)
	s.now = func() time.Time { return now }

	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, now.Add(-300*time.Second), store.cutoffs[0])
}

func TestSweeper_SweepOnceError(t *testing.T) {
	boom := errors.New("db down")
	s := NewSweeper(&recordingExpirer{err: boom}, DefaultTTL, time.Minute, nil)
	_, err := s.SweepOnce(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	store := &recordingExpirer{}
	s := NewSweeper(store, DefaultTTL, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.calls() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
