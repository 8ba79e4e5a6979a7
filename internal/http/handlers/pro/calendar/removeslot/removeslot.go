package removeslot

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
	services "github.com/serpleno/serpleno/internal/services/calendar"
)

type Service interface {
	DeleteSlot(ctx context.Context, proID, id int64) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление слота
// @Tags Professional
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор слота"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Слот не найден"
// @Failure 409 {object} response.ErrorResponse "Слот забронирован"
// @Router /pro/calendar/slot/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.calendar.removeslot"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	slotID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	err = h.service.DeleteSlot(r.Context(), id.ID, slotID)
	switch {
	case errors.Is(err, services.ErrSlotNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("slot not found"))
		return
	case errors.Is(err, services.ErrSlotLocked):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("slot is reserved"))
		return
	case err != nil:
		log.Error("failed to delete slot", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete slot"))
		return
	}

	log.Info("slot deleted", slog.Int64("slot_id", slotID))
	render.JSON(w, r, response.OK())
}
