package me

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/farm-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
)

func TestMeHandler_ServeHTTP(t *testing.T) {
	handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	subCreated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	claims := jwt.NewAccessClaims("u1", "Иван", "Basic", "trial", "active", subCreated, true)
	claims.ExpiresAt = jwtlib.NewNumericDate(subCreated.Add(30 * 24 * time.Hour))

	t.Run("claims in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Claims, &claims))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		data := got["data"].(map[string]any)
		assert.Equal(t, "u1", data["userId"])
		assert.Equal(t, "Basic", data["planName"])
		assert.Equal(t, true, data["rememberMe"])
		assert.Equal(t, "2025-03-31T12:00:00Z", data["expiresAt"])
		assert.Equal(t, "2025-03-01T12:00:00Z", data["subscriptionCreatedAt"])
	})

	t.Run("no claims", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
