// Package middlewarectx содержит HTTP middleware: проверку access-токена,
// ограничение частоты запросов и учёт метрик.
//
// JWTMiddleware проверяет токен из заголовка Authorization через сервис учётных записей
// и кладёт его claims в контекст запроса. При ошибке возвращает 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/farm-backend/internal/http/response"
	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// Claims ключ для claims access-токена в контексте
	Claims Key = "claims"
)

// TokenValidator проверяет access-токен.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*jwt.Claims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				log.Info("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := validator.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				status, resp := response.AccountError(err)
				if status == http.StatusInternalServerError {
					log.Error("token validation failed", sl.Err(err))
				} else {
					log.Info("token rejected", sl.Err(err))
				}
				render.Status(r, status)
				render.JSON(w, r, resp)
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID())
			ctx = context.WithValue(ctx, Claims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext возвращает claims, положенные JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(Claims).(*jwt.Claims)
	return claims, ok && claims != nil
}
