package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"notesmk/backend/internal/audit"
	"notesmk/backend/internal/logging"
	"notesmk/backend/internal/server/httperr"
)

// ClientIP puts the caller address on the request context for the audit trail.
func ClientIP() fiber.Handler {
	return func(c fiber.Ctx) error {
		c.SetContext(audit.WithClientIP(c.Context(), c.IP()))
		return c.Next()
	}
}

// RequestLog logs one line per request with status and duration. Paths in skip are not logged.
func RequestLog(log logging.Logger, skip ...string) fiber.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	log = log.With("component", "http")
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if skipped[c.Path()] {
			return err
		}
		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; report what it will write.
			status = httperr.Status(err)
		}
		log.Debug(c.Context(), "request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.IP(),
		)
		return err
	}
}
