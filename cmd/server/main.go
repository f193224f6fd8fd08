package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"google.golang.org/grpc"

	accountrepo "notesmk/backend/internal/account/repository"
	accountservice "notesmk/backend/internal/account/service"
	"notesmk/backend/internal/audit"
	auditrepo "notesmk/backend/internal/audit/repository"
	"notesmk/backend/internal/config"
	"notesmk/backend/internal/db"
	"notesmk/backend/internal/devotp"
	healthhandler "notesmk/backend/internal/health/handler"
	identityhandler "notesmk/backend/internal/identity/handler"
	identityservice "notesmk/backend/internal/identity/service"
	"notesmk/backend/internal/logging"
	noterepo "notesmk/backend/internal/note/repository"
	noteservice "notesmk/backend/internal/note/service"
	"notesmk/backend/internal/otp"
	otprepo "notesmk/backend/internal/otp/repository"
	"notesmk/backend/internal/policy/engine"
	"notesmk/backend/internal/server"
	"notesmk/backend/internal/telemetry"
	telemetryotel "notesmk/backend/internal/telemetry/otel"
)

const (
	shutdownTimeout = 10 * time.Second
	healthInterval  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		logging.New(os.Stderr, "error", false).Error(context.Background(), "config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction())
	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultPool)
	if err != nil {
		return err
	}
	defer database.Close()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Settings{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(sctx); err != nil {
			log.Warn(sctx, "otel shutdown", "error", err)
		}
	}()

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(database), log)
	recorder, err := telemetry.NewRecorder(
		telemetryotel.NewEventEmitter(providers.LoggerProvider),
		auditLogger,
		providers.Meter("notesmk/backend"),
		log,
	)
	if err != nil {
		return err
	}

	policy, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		return err
	}

	tokens, err := newTokenProvider(cfg)
	if err != nil {
		return err
	}
	sender, err := newSender(cfg, log)
	if err != nil {
		return err
	}

	var devStore devotp.Store
	issuerOpts := []otp.Option{otp.WithLogger(log)}
	authOpts := []identityservice.Option{identityservice.WithLogger(log), identityservice.WithEvents(recorder)}
	if cfg.DevOTPEnabled && !cfg.IsProduction() {
		devStore = devotp.NewMemoryStore()
		issuerOpts = append(issuerOpts, otp.WithDevStore(devStore))
		authOpts = append(authOpts, identityservice.WithDevStore(devStore))
		log.Warn(ctx, "dev OTP retrieval enabled at GET /dev/otp")
	}

	codes := otprepo.NewPostgresRepository(database)
	issuer := otp.NewIssuer(codes, sender, cfg.OTPTTL(), issuerOpts...)
	resolver := accountservice.NewResolver(accountrepo.NewPostgresRepository(database))
	auth := identityservice.NewAuthService(codes, issuer, resolver, tokens, authOpts...)
	notes := noteservice.NewGuard(noterepo.NewPostgresRepository(database), policy, recorder, log)

	health := healthhandler.NewServer(database, policy, log)
	app := server.NewHTTPApp(server.HTTPDeps{
		Auth:          auth,
		Authenticator: auth,
		Notes:         notes,
		Cookie: identityhandler.CookieConfig{
			Name:   cfg.CookieName,
			Domain: cfg.CookieDomain,
			Secure: cfg.IsProduction(),
		},
		AllowedOrigins: cfg.AllowedOrigins(),
		DevOTP:         devStore,
		Ready:          health.Ready,
		Logger:         log,
	})

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "http server listening", "addr", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			errCh <- err
		}
	}()

	go health.Run(ctx, healthInterval)

	var grpcServer *grpc.Server
	if cfg.HealthGRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthGRPCAddr)
		if err != nil {
			return err
		}
		grpcServer = server.NewHealthGRPCServer(health)
		go func() {
			log.Info(ctx, "grpc health server listening", "addr", cfg.HealthGRPCAddr)
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down")
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Warn(context.Background(), "http shutdown", "error", err)
	}
	dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := recorder.Drain(dctx); err != nil {
		log.Warn(dctx, "telemetry drain", "error", err)
	}
	return runErr
}
