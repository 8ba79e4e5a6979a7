package updateslot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/calendar"
)

type Request struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Hour string `json:"hour" validate:"required,datetime=15:04"`
}

type Service interface {
	UpdateSlot(ctx context.Context, proID, id int64, date, hour string) (*models.Slot, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Перенос слота
// @Description Забронированный слот перенести нельзя.
// @Tags Professional
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор слота"
// @Param request body Request true "Новые дата и время"
// @Success 200 {object} response.Response{data=models.Slot}
// @Failure 404 {object} response.ErrorResponse "Слот не найден"
// @Failure 409 {object} response.ErrorResponse "Слот забронирован или время занято"
// @Router /pro/calendar/slot/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.calendar.updateslot"

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
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	slot, err := h.service.UpdateSlot(r.Context(), id.ID, slotID, req.Date, req.Hour)
	switch {
	case errors.Is(err, services.ErrSlotNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("slot not found"))
		return
	case errors.Is(err, services.ErrSlotLocked):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("slot is reserved"))
		return
	case errors.Is(err, services.ErrSlotExists):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("slot already exists"))
		return
	case err != nil:
		log.Error("failed to update slot", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update slot"))
		return
	}
	render.JSON(w, r, response.OKWithData(slot))
}
