package otp

import (
	"context"
	"time"

	"notesmk/backend/internal/logging"
)

// Expirer deletes codes created before a cutoff.
type Expirer interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically deletes expired codes. Reads already ignore expired codes, so a stalled
// sweeper only costs disk.
type Sweeper struct {
	store    Expirer
	ttl      time.Duration
	interval time.Duration
	log      logging.Logger
	now      func() time.Time
}

// NewSweeper returns a Sweeper that removes codes older than ttl every interval.
func NewSweeper(store Expirer, ttl, interval time.Duration, log logging.Logger) *Sweeper {
	if log == nil {
		log = logging.Nop()
	}
	return &Sweeper{
		store:    store,
		ttl:      ttl,
		interval: interval,
		log:      log.With("component", "otp_sweeper"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SweepOnce deletes every code that expired before now.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info(ctx, "expired codes deleted", "count", n)
	}
	return n, nil
}

// Run sweeps immediately and then every interval until ctx is done. Errors are logged.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn(ctx, "sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
