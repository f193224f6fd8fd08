// Package telemetry records auth and note events: OTel log records, OTel counters and the audit trail.
package telemetry

import (
	"context"
	"time"
)

// EventType names a recorded event.
type EventType string

const (
	EventOTPRequested      EventType = "otp.requested"
	EventOTPDeliveryFailed EventType = "otp.delivery_failed"
	EventSignup            EventType = "auth.signup"
	EventLogin             EventType = "auth.login"
	EventVerifyFailed      EventType = "auth.verify_failed"
	EventNoteCreated       EventType = "note.created"
	EventNoteUpdated       EventType = "note.updated"
	EventNoteDeleted       EventType = "note.deleted"
)

// Event is one auth or note event. AccountID is empty when no account is resolved.
type Event struct {
	Type      EventType
	AccountID string
	Email     string
	// Resource is the affected entity id, e.g. a note id.
	Resource  string
	Metadata  map[string]string
	CreatedAt time.Time
}

// EventEmitter emits events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
