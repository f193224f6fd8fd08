// Worker deletes expired one-time codes from otp_codes every OTP_SWEEP_INTERVAL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"notesmk/backend/internal/config"
	"notesmk/backend/internal/db"
	"notesmk/backend/internal/logging"
	"notesmk/backend/internal/otp"
	otprepo "notesmk/backend/internal/otp/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", false).Error(context.Background(), "config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction()).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		log.Error(ctx, "database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	sweeper := otp.NewSweeper(otprepo.NewPostgresRepository(database), cfg.OTPTTL(), cfg.OTPSweepInterval(), log)
	log.Info(ctx, "sweeping expired codes", "interval", cfg.OTPSweepInterval().String(), "ttl", cfg.OTPTTL().String())
	sweeper.Run(ctx)
	log.Info(context.Background(), "stopped")
}
