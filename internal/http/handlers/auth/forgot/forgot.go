// Package forgot реализует HTTP-обработчик запроса кода восстановления пароля.
//
// Ответ всегда 200 и не зависит от того, зарегистрирован ли email.
package forgot

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

// Request содержит email пользователя.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает операцию запроса кода.
type Service interface {
	ForgotPassword(ctx context.Context, email string) *account.ForgotResult
}

// Handler обрабатывает запросы кода восстановления.
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
// @Summary Запрос кода восстановления пароля
// @Description Отправляет 8-значный код на email, если он зарегистрирован. Код действует 15 минут.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email пользователя"
// @Success 200 {object} response.Response{data=account.ForgotResult} "Запрос принят"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/forgot-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgot"

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

	res := h.accounts.ForgotPassword(r.Context(), req.Email)
	render.JSON(w, r, response.OKWithData(res))
}
