// Package api собирает HTTP API учётных записей: маршруты, middleware и сервер.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	// регистрирует swagger-документ для /docs
	_ "github.com/magabrotheeeer/farm-backend/docs"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/auth/forgot"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/auth/reset"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/auth/validatecode"
	"github.com/magabrotheeeer/farm-backend/internal/http/handlers/health"
	"github.com/magabrotheeeer/farm-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/metrics"
	"github.com/magabrotheeeer/farm-backend/internal/services/account"
)

// AccountService операции над учётными записями. Реализуется account.Service
// и gRPC-клиентом auth-service.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.RegisterResult, error)
	Login(ctx context.Context, in account.LoginInput) (*account.TokenResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*account.TokenResult, error)
	ForgotPassword(ctx context.Context, email string) *account.ForgotResult
	ValidateResetCode(ctx context.Context, code string) bool
	ResetPassword(ctx context.Context, code, newPassword string) (*account.ResetResult, error)
	ValidateToken(ctx context.Context, accessToken string) (*jwt.Claims, error)
}

// NewRouter регистрирует все маршруты приложения.
func NewRouter(logger *slog.Logger, accounts AccountService, m *metrics.Metrics, limiter *middlewarectx.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware(m),
	)

	r.Get("/health", health.New().ServeHTTP)
	r.Handle("/metrics", m.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1/auth", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/register", register.New(logger, accounts).ServeHTTP)
			r.Post("/login", login.New(logger, accounts).ServeHTTP)
			r.Post("/refresh-token", refresh.New(logger, accounts).ServeHTTP)
			r.Post("/forgot-password", forgot.New(logger, accounts).ServeHTTP)
			r.Post("/validate-reset-code", validatecode.New(logger, accounts).ServeHTTP)
			r.Post("/reset-password", reset.New(logger, accounts).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(accounts, logger))
			r.Get("/me", me.New(logger).ServeHTTP)
		})
	})

	return r
}
