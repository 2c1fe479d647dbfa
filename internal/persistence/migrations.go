package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"go.uber.org/zap"

	"github.com/catalog-hub/catalog-service/migrations"
)

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.sugar.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.sugar.Fatalf(format, v...) }

// newMigrator builds a goose provider over the embedded migrations. The Postgres session
// locker holds an advisory lock for the whole run, so concurrent replicas apply each
// version once.
func newMigrator(db *sql.DB, logger *zap.Logger) (*goose.Provider, error) {
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations,
		goose.WithSessionLocker(locker),
		goose.WithLogger(gooseLogger{sugar: logger.Sugar()}),
	)
}

// migrateUp is a seam for testing goose's Provider.Up.
var migrateUp = func(ctx context.Context, provider *goose.Provider) ([]*goose.MigrationResult, error) {
	return provider.Up(ctx)
}

// RunMigrations applies every pending embedded migration through goose.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := newMigrator(db, logger)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	results, err := migrateUp(ctx, provider)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, res := range results {
		logger.Info("applied migration",
			zap.String("file", res.Source.Path),
			zap.Int64("version", res.Source.Version),
			zap.Duration("took", res.Duration))
	}
	logger.Info("migrations up to date", zap.Int("applied", len(results)))
	return nil
}
