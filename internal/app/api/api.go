package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/app/accounts"
	"github.com/magabrotheeeer/farm-backend/internal/config"
	"github.com/magabrotheeeer/farm-backend/internal/grpc/client"
	"github.com/magabrotheeeer/farm-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер API.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	start   func(ctx context.Context)
	release func()
}

// New создаёт приложение. Если задан auth_service_address, операции выполняет удалённый
// auth-service, иначе сервис учётных записей создаётся в этом процессе.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	m := metrics.New()

	var (
		svc     AccountService
		start   = func(context.Context) {}
		release func()
	)
	if cfg.AuthServiceAddress != "" {
		authClient, err := client.NewAuthClient(cfg.AuthServiceAddress, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using remote auth-service", slog.String("address", cfg.AuthServiceAddress))
		svc = authClient
		release = func() {
			if err := authClient.Close(); err != nil {
				logger.Error("failed to close auth-service connection", sl.Err(err))
			}
		}
	} else {
		res, err := accounts.Build(ctx, cfg, logger, m)
		if err != nil {
			return nil, err
		}
		svc = res.Service
		start = res.StartSweeper
		release = res.Close
	}

	limiter := middlewarectx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      NewRouter(logger, svc, m, limiter),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		start:   start,
		release: release,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер и освобождает ресурсы.
func (a *App) Run(ctx context.Context) error {
	defer a.release()

	lis, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	a.start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", lis.Addr().String()))
		err := a.server.Serve(lis)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}
