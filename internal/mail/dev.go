package mail

import (
	"context"

	"github.com/google/uuid"

	"notesmk/backend/internal/logging"
)

// DevSender accepts every message and logs its envelope. The body is never logged; local clients
// read codes back through the dev OTP store. For local development and tests only.
type DevSender struct {
	log logging.Logger
}

// NewDevSender returns a logging-only sender. log may be nil.
func NewDevSender(log logging.Logger) *DevSender {
	if log == nil {
		log = logging.Nop()
	}
	return &DevSender{log: log}
}

// Send logs the envelope and returns a generated id.
func (d *DevSender) Send(ctx context.Context, to, subject, htmlBody string) (*Receipt, error) {
	id := uuid.New().String()
	d.log.Info(ctx, "dev mail accepted", "to", to, "subject", subject, "message_id", id, "bytes", len(htmlBody))
	return &Receipt{MessageID: id}, nil
}
