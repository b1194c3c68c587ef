// Command sweeper deletes expired refresh-token records. Expired records are
// already rejected at refresh time; this only reclaims the rows. Run it from
// cron or a scheduled job.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/marufkhan20/pizza-auth-service/internal/config"
	"github.com/marufkhan20/pizza-auth-service/internal/logging"
	"github.com/marufkhan20/pizza-auth-service/internal/repository/postgres"
	"github.com/marufkhan20/pizza-auth-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.IsProduction())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("sweep failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		logger.Info("nothing to sweep", "storage", cfg.Storage.Driver)
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", "error", err)
		}
	}()

	store := service.NewRefreshTokenStore(postgres.NewRefreshTokenRepository(db), cfg.JWT.RefreshTokenExpiry, logger)

	deleted, err := store.Sweep(ctx)
	if err != nil {
		return err
	}

	logger.Info("expired refresh tokens deleted", "count", deleted)
	return nil
}
