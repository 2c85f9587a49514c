// Package me реализует HTTP-обработчик, возвращающий данные владельца access-токена.
package me

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/farm-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/farm-backend/internal/http/response"
)

// Result данные из claims access-токена.
type Result struct {
	UserUID               string     `json:"userId"`
	Name                  string     `json:"name"`
	PlanName              string     `json:"planName"`
	SubscriptionType      string     `json:"subscriptionType"`
	SubscriptionStatus    string     `json:"subscriptionStatus"`
	SubscriptionCreatedAt *time.Time `json:"subscriptionCreatedAt,omitempty"`
	RememberMe            bool       `json:"rememberMe"`
	ExpiresAt             *time.Time `json:"expiresAt,omitempty"`
}

// Handler обрабатывает GET /auth/me.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Возвращает данные из access-токена.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Result} "Данные пользователя"
// @Failure 401 {object} response.ErrorResponse "Нет или недействительный токен"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewarectx.ClaimsFromContext(r.Context())
	if !ok {
		h.log.Error("claims missing in request context", slog.String("op", "handlers.auth.me"))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	res := Result{
		UserUID:               claims.UserUID(),
		Name:                  claims.Name,
		PlanName:              claims.PlanName,
		SubscriptionType:      claims.SubscriptionType,
		SubscriptionStatus:    claims.SubscriptionStatus,
		SubscriptionCreatedAt: claims.SubscriptionCreatedAt,
		RememberMe:            claims.Remember(),
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.UTC()
		res.ExpiresAt = &exp
	}
	render.JSON(w, r, response.OKWithData(res))
}
