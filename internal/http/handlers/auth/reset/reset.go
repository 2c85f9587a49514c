// Package reset реализует HTTP-обработчик смены пароля по коду восстановления.
package reset

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

// Request содержит код и новый пароль. Минимальную длину пароля проверяет сервис.
type Request struct {
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

// Service описывает операцию смены пароля.
type Service interface {
	ResetPassword(ctx context.Context, code, newPassword string) (*account.ResetResult, error)
}

// Handler обрабатывает запросы смены пароля.
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
// @Summary Смена пароля по коду
// @Description Меняет пароль и погашает код. Повторное использование кода невозможно.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Код и новый пароль"
// @Success 200 {object} response.Response{data=account.ResetResult} "Пароль изменён"
// @Failure 400 {object} response.ErrorResponse "Неверный или истёкший код, короткий пароль"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/reset-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.reset"

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

	res, err := h.accounts.ResetPassword(r.Context(), req.Code, req.NewPassword)
	if err != nil {
		status, resp := response.AccountError(err)
		log.Info("password reset failed", slog.Int("status", status), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("password reset", slog.String("user_uid", res.UserUID))
	render.JSON(w, r, response.OKWithData(res))
}
