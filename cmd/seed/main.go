// seed inserts a demo account with a few notes for local development.
// Idempotent: does nothing if the demo account already exists.
package main

import (
	"context"
	"os"
	"time"

	accountrepo "notesmk/backend/internal/account/repository"
	accountservice "notesmk/backend/internal/account/service"
	"notesmk/backend/internal/config"
	"notesmk/backend/internal/db"
	identitydomain "notesmk/backend/internal/identity/domain"
	"notesmk/backend/internal/logging"
	noterepo "notesmk/backend/internal/note/repository"
	noteservice "notesmk/backend/internal/note/service"
	"notesmk/backend/internal/policy/engine"
)

const (
	demoEmail = "dev@example.com"
	demoName  = "Dev User"
)

var demoNotes = []struct{ title, content string }{
	{"Welcome", "Sign in with a one-time code sent to your email. No password needed."},
	{"Groceries", "Milk, eggs, coffee beans"},
	{"Ideas", "Dark mode for the notes list"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", false).Error(context.Background(), "config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogLevel, false).With("component", "seed")
	if err := seed(context.Background(), cfg, log); err != nil {
		log.Error(context.Background(), "seed failed", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	database, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		return err
	}
	defer database.Close()

	resolver := accountservice.NewResolver(accountrepo.NewPostgresRepository(database))
	existing, err := resolver.Resolve(ctx, demoEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info(ctx, "demo account already present", "email", demoEmail)
		return nil
	}

	acc, err := resolver.Create(ctx, demoEmail, demoName, time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return err
	}
	policy, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		return err
	}
	guard := noteservice.NewGuard(noterepo.NewPostgresRepository(database), policy, nil, log)
	who := identitydomain.FromAccount(acc)
	for _, n := range demoNotes {
		if _, err := guard.Create(ctx, who, n.title, n.content); err != nil {
			return err
		}
	}
	log.Info(ctx, "seeded demo account", "email", demoEmail, "notes", len(demoNotes))
	return nil
}
