// Package scheduler собирает фоновый сервис очистки просроченных кодов сброса пароля.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/config"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/farm-backend/internal/services/scheduler"
	"github.com/magabrotheeeer/farm-backend/internal/storage/postgres"
)

const (
	dbRetries    = 10
	dbRetryDelay = 3 * time.Second
)

// ErrStorageNotConfigured планировщику не задана строка подключения к PostgreSQL.
var ErrStorageNotConfigured = errors.New("storage connection string is not configured")

// App представляет приложение планировщика.
type App struct {
	sweeper *schedulerservice.Sweeper
	db      *postgres.Storage
	logger  *slog.Logger
}

func waitForDB(ctx context.Context, dsn string) (*postgres.Storage, error) {
	var lastErr error
	for range dbRetries {
		db, err := postgres.New(ctx, dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
	return nil, fmt.Errorf("database not ready after retries: %w", lastErr)
}

// New подключается к PostgreSQL. Хранилище в памяти живёт внутри процесса API,
// поэтому отдельный планировщик без базы не запускается.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if !cfg.UsePostgres() {
		return nil, ErrStorageNotConfigured
	}

	db, err := waitForDB(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	return &App{
		sweeper: schedulerservice.NewSweeper(db, cfg.ResetCodeSweepInterval, logger),
		db:      db,
		logger:  logger,
	}, nil
}

// Run запускает очистку и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.sweeper.Run(ctx)

	a.logger.Info("shutting down scheduler service")

	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
