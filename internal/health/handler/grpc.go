// Package handler reports readiness over the standard gRPC health service and HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"notesmk/backend/internal/logging"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "notesmk.api"

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks the policy engine (e.g. *engine.OPAEvaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server keeps the gRPC health status in line with the database and policy checks.
type Server struct {
	pinger Pinger
	policy PolicyChecker
	health *health.Server
	log    logging.Logger
}

// NewServer returns a Server. A nil pinger or policy checker is skipped.
func NewServer(pinger Pinger, policy PolicyChecker, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{pinger: pinger, policy: policy, health: health.NewServer(), log: log.With("component", "health")}
}

// Register adds the grpc.health.v1 service to reg.
func (s *Server) Register(reg grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(reg, s.health)
}

// Check runs every dependency check and joins the failures.
func (s *Server) Check(ctx context.Context) error {
	var errs []error
	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("policy: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Refresh runs Check and publishes the result as the serving status.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.Check(ctx); err != nil {
		s.log.Warn(ctx, "health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Run refreshes the status every interval until ctx is done, then marks everything NOT_SERVING.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}

// Ready serves the HTTP readiness check.
func (s *Server) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()
	if err := s.Check(ctx); err != nil {
		s.log.Warn(ctx, "readiness check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "status": "NOT_SERVING"})
	}
	return c.JSON(fiber.Map{"success": true, "status": "SERVING"})
}
