// Package mark отмечает уведомление специалиста прочитанным или непрочитанным.
package mark

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	services "github.com/serpleno/serpleno/internal/services/notification"
)

type Service interface {
	SetRead(ctx context.Context, proID, id int64, read bool) error
}

// Handler ставит флаг read в заданное значение.
type Handler struct {
	log     *slog.Logger
	service Service
	read    bool
}

// New создает обработчик, который ставит флаг прочтения в read.
func New(log *slog.Logger, service Service, read bool) *Handler {
	return &Handler{log: log, service: service, read: read}
}

// ServeHTTP godoc
// @Summary Отметка уведомления
// @Tags Professional
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор уведомления"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Router /pro/notifications/{id}/read [post]
// @Router /pro/notifications/{id}/unread [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.notifications.mark"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	err = h.service.SetRead(r.Context(), id.ID, notificationID, h.read)
	if errors.Is(err, services.ErrNotificationNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("notification not found"))
		return
	}
	if err != nil {
		log.Error("failed to mark notification", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update notification"))
		return
	}
	render.JSON(w, r, response.OK())
}
