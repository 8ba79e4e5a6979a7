// Package list отдает контент, доступный плану пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
)

type Service interface {
	List(ctx context.Context, plan string) ([]models.Content, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Контент
// @Description Бесплатный план видит только бесплатные материалы, остальные планы видят всё.
// @Tags Client
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Content}
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /content [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	items, err := h.service.List(r.Context(), id.Plan)
	if err != nil {
		log.Error("failed to list content", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list content"))
		return
	}

	log.Info("content listed", slog.Int("count", len(items)), slog.String("plan", id.Plan))
	render.JSON(w, r, response.OKWithData(items))
}
