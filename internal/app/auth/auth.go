// Package auth собирает gRPC auth-service поверх сервиса учётных записей.
package auth

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/magabrotheeeer/farm-backend/internal/app/accounts"
	"github.com/magabrotheeeer/farm-backend/internal/config"
	"github.com/magabrotheeeer/farm-backend/internal/grpc/authpb"
	"github.com/magabrotheeeer/farm-backend/internal/grpc/server"
	"github.com/magabrotheeeer/farm-backend/internal/metrics"
)

// App gRPC-сервер auth-service.
type App struct {
	grpcServer *grpc.Server
	listener   net.Listener
	resources  *accounts.Resources
	logger     *slog.Logger
}

// New создаёт сервис учётных записей и регистрирует его на gRPC-сервере.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	res, err := accounts.Build(ctx, cfg, logger, metrics.New())
	if err != nil {
		return nil, err
	}

	lis, err := net.Listen("tcp", cfg.GRPCAuthAddress)
	if err != nil {
		res.Close()
		return nil, err
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, server.NewAuthServer(res.Service, logger))

	return &App{
		grpcServer: grpcServer,
		listener:   lis,
		resources:  res,
		logger:     logger,
	}, nil
}

// Addr адрес, на котором слушает сервер.
func (a *App) Addr() string {
	return a.listener.Addr().String()
}

// Run обслуживает запросы до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.resources.Close()
	a.resources.StartSweeper(ctx)
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Auth gRPC service listening on", slog.String("address", a.Addr()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down auth gRPC service gracefully")
		a.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
