// Package refresh реализует HTTP-обработчик обмена refresh-токена на новую пару токенов.
package refresh

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/farm-backend/internal/http/response"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/services/account"
)

// Request содержит refresh-токен.
type Request struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Service описывает операцию обновления токенов.
type Service interface {
	RefreshToken(ctx context.Context, refreshToken string) (*account.TokenResult, error)
}

// Handler обрабатывает запросы обновления токенов.
type Handler struct {
	log      *slog.Logger
	accounts Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, accounts Service) *Handler {
	return &Handler{
		log:      log,
		accounts: accounts,
		validate: response.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Обновление токенов
// @Description Выпускает новую пару токенов. Срок жизни определяется флагом rememberMe исходного токена.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Refresh-токен"
// @Success 200 {object} response.Response{data=account.TokenResult} "Новая пара токенов"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Недействительный refresh-токен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/refresh-token [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.accounts.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		status, resp := response.AccountError(err)
		log.Info("token refresh failed", slog.Int("status", status), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
