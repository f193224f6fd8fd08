// Package audit writes the best-effort audit trail of authentication and note events.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"notesmk/backend/internal/audit/domain"
	auditrepo "notesmk/backend/internal/audit/repository"
	"notesmk/backend/internal/logging"
)

type clientIPKey struct{}

// WithClientIP returns ctx carrying the caller IP for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the caller IP stored by WithClientIP, or "unknown".
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// Logger persists audit entries. LogEvent is best-effort: failures are logged and do not affect the caller.
type Logger struct {
	repo auditrepo.Repository
	log  logging.Logger
	now  func() time.Time
}

// NewLogger returns a Logger that persists to repo. log may be nil.
func NewLogger(repo auditrepo.Repository, log logging.Logger) *Logger {
	if log == nil {
		log = logging.Nop()
	}
	return &Logger{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// LogEvent writes one audit log entry.
func (l *Logger) LogEvent(ctx context.Context, accountID, email, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Email:     email,
		Action:    action,
		Resource:  resource,
		IP:        ClientIP(ctx),
		Metadata:  metadata,
		CreatedAt: l.now(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn(ctx, "audit: failed to log event", "action", action, "resource", resource, "error", err)
	}
}
