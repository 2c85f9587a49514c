// Package validatecode реализует HTTP-обработчик проверки кода восстановления без его погашения.
package validatecode

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
)

// Request содержит проверяемый код.
type Request struct {
	Code string `json:"code" validate:"required"`
}

// Result ответ проверки.
type Result struct {
	Valid bool `json:"valid"`
}

// Service описывает операцию проверки кода.
type Service interface {
	ValidateResetCode(ctx context.Context, code string) bool
}

// Handler обрабатывает запросы проверки кода.
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
// @Summary Проверка кода восстановления
// @Description Сообщает, действует ли код. Код при этом не погашается.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Код восстановления"
// @Success 200 {object} response.Response{data=Result} "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/validate-reset-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.validatecode"

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

	render.JSON(w, r, response.OKWithData(Result{Valid: h.accounts.ValidateResetCode(r.Context(), req.Code)}))
}
