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
	ListManaged(ctx context.Context, actor models.Identity) ([]models.Content, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Материалы для управления
// @Description Администратор видит все материалы, специалист только свои.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Content}
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/content [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.content.list"

	actor, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	items, err := h.service.ListManaged(r.Context(), actor)
	if err != nil {
		h.log.Error("failed to list content",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list content"))
		return
	}
	render.JSON(w, r, response.OKWithData(items))
}
