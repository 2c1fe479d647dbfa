// Command createsuperuser inserts a verified admin account.
//
//	createsuperuser -email admin@example.com [-name "Site Admin"]
//
// The password is prompted for on a terminal, or read from the first line of stdin.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/catalog-hub/catalog-service/internal/config"
	"github.com/catalog-hub/catalog-service/internal/observability"
	"github.com/catalog-hub/catalog-service/internal/persistence"
	"github.com/catalog-hub/catalog-service/internal/repository"
	"github.com/catalog-hub/catalog-service/internal/service"
)

func main() {
	email := flag.String("email", "", "email of the new admin (required)")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()
	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	password, err := readPassword(int(os.Stdin.Fd()), os.Stdin, os.Stderr)
	if err != nil {
		logger.Fatal("read password", zap.Error(err))
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: repository.NewUserRepository(pg.PoolHandle()),
		Logger:   logger,
	})
	user, err := authService.CreateSuperuser(ctx, *name, *email, password)
	if err != nil {
		logger.Fatal("create superuser", zap.Error(err))
	}

	logger.Info("superuser created", zap.String("user_id", user.ID), zap.String("email", user.Email))
}
