package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/farm-backend/internal/config"
)

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Env:             "local",
		HTTPServer:      config.HTTPServer{AddressHTTP: "127.0.0.1:0", TimeoutHTTP: time.Second, IdleTimeout: time.Second},
		JWTToken:        config.JWTToken{JWTSecretKey: "test-secret", JWTIssuer: "farm-backend"},
		PasswordHashing: config.PasswordHashing{BcryptCost: bcrypt.MinCost},
		RateLimit:       config.RateLimit{RateLimitRPS: 5, RateLimitBurst: 10},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNew_RemoteAuthService(t *testing.T) {
	cfg := &config.Config{
		AuthServiceAddress: "127.0.0.1:50051",
		HTTPServer:         config.HTTPServer{AddressHTTP: "127.0.0.1:0"},
		RateLimit:          config.RateLimit{RateLimitRPS: 5, RateLimitBurst: 10},
	}
	app, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	app.release()
}
