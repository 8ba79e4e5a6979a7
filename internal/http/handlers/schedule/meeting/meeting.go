package meeting

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/schedule"
)

type Service interface {
	Meeting(ctx context.Context, client models.Identity) (*models.Meeting, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Ближайшая встреча
// @Description Ближайшая запись клиента со специалистом. Без записей data отсутствует.
// @Tags Schedule
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Meeting}
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 403 {object} response.ErrorResponse "План не включает встречи"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /meeting [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.meeting"

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	m, err := h.service.Meeting(r.Context(), id)
	if errors.Is(err, services.ErrNoMeeting) {
		render.JSON(w, r, response.OK())
		return
	}
	if err != nil {
		h.log.Error("failed to read meeting",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read meeting"))
		return
	}
	render.JSON(w, r, response.OKWithData(m))
}
