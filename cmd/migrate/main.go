// migrate applies the embedded SQL migrations: go run ./cmd/migrate -direction up.
package main

import (
	"context"
	"flag"
	"os"

	"notesmk/backend/internal/config"
	"notesmk/backend/internal/db/migrate"
	"notesmk/backend/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	steps := flag.Int("steps", 0, "Apply N migrations (negative rolls back); overrides -direction")
	version := flag.Bool("version", false, "Print the applied schema version and exit")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", false).Error(ctx, "config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction()).With("component", "migrate")

	switch {
	case *version:
		v, dirty, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			log.Error(ctx, "version", "error", err)
			os.Exit(1)
		}
		log.Info(ctx, "schema version", "version", v, "dirty", dirty)
	case *steps != 0:
		if err := migrate.Steps(cfg.DatabaseURL, *steps); err != nil {
			log.Error(ctx, "migrate", "steps", *steps, "error", err)
			os.Exit(1)
		}
		log.Info(ctx, "migrations applied", "steps", *steps)
	default:
		if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
			log.Error(ctx, "migrate", "direction", *direction, "error", err)
			os.Exit(1)
		}
		log.Info(ctx, "migrations applied", "direction", *direction)
	}
}
