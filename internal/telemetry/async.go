package telemetry

import (
	"context"
	"time"
)

// emitTimeout bounds a single background emit.
const emitTimeout = 5 * time.Second

// emitAsync hands ev to the emitter on a goroutine detached from the request context, so a
// cancelled request still gets its event exported. Drain waits for these goroutines.
func (r *Recorder) emitAsync(ctx context.Context, ev *Event) {
	if r.emitter == nil || ev == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		emitCtx, cancel := context.WithTimeout(detached, emitTimeout)
		defer cancel()
		if err := r.emitter.Emit(emitCtx, ev); err != nil {
			r.log.Warn(emitCtx, "telemetry: async emit failed", "event_type", string(ev.Type), "error", err)
		}
	}()
}

// Drain blocks until in-flight emits finish or ctx is done. Call it before shutting down the
// OTel providers.
func (r *Recorder) Drain(ctx context.Context) error {
	if r == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
