// Package health реализует проверку живости HTTP-сервера.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/farm-backend/internal/http/response"
)

// Handler отвечает 200 OK, пока сервер принимает запросы.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Tags Service
// @Produce  json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
