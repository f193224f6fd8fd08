package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"notesmk/backend/internal/logging"
)

// AuditSink persists events to the audit trail.
type AuditSink interface {
	LogEvent(ctx context.Context, accountID, email, action, resource, metadata string)
}

// Recorder fans one event out to the OTel emitter, an event counter and the audit sink.
// A nil *Recorder records nothing.
type Recorder struct {
	emitter EventEmitter
	audit   AuditSink
	counter metric.Int64Counter
	log     logging.Logger
	now     func() time.Time

	inflight sync.WaitGroup
}

// NewRecorder returns a Recorder. Any of emitter, audit and meter may be nil.
func NewRecorder(emitter EventEmitter, audit AuditSink, meter metric.Meter, log logging.Logger) (*Recorder, error) {
	if log == nil {
		log = logging.Nop()
	}
	r := &Recorder{emitter: emitter, audit: audit, log: log, now: func() time.Time { return time.Now().UTC() }}
	if meter != nil {
		c, err := meter.Int64Counter("notesmk.events",
			metric.WithDescription("Auth and note events by type"),
			metric.WithUnit("{event}"))
		if err != nil {
			return nil, err
		}
		r.counter = c
	}
	return r, nil
}

// Record emits ev. Never fails the caller.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}
	ev = ev.detach()
	if r.counter != nil {
		r.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", string(ev.Type))))
	}
	r.emitAsync(ctx, &ev)
	if r.audit != nil {
		action, resource := split(ev.Type)
		if ev.Resource != "" {
			resource = resource + ":" + ev.Resource
		}
		r.audit.LogEvent(context.WithoutCancel(ctx), ev.AccountID, ev.Email, action, resource, encodeMetadata(ev.Metadata))
	}
}

// detach copies the string fields so the async emit does not share memory with request buffers.
func (ev Event) detach() Event {
	ev.AccountID = strings.Clone(ev.AccountID)
	ev.Email = strings.Clone(ev.Email)
	ev.Resource = strings.Clone(ev.Resource)
	if ev.Metadata != nil {
		m := make(map[string]string, len(ev.Metadata))
		for k, v := range ev.Metadata {
			m[strings.Clone(k)] = strings.Clone(v)
		}
		ev.Metadata = m
	}
	return ev
}

// split maps "note.created" to action "created" and resource "note".
func split(t EventType) (action, resource string) {
	s := string(t)
	if i := strings.IndexByte(s, '.'); i > 0 {
		return s[i+1:], s[:i]
	}
	return s, "unknown"
}

func encodeMetadata(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
