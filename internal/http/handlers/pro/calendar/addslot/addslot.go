package addslot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/calendar"
)

// Request: дата и время нового слота.
type Request struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Hour string `json:"hour" validate:"required,datetime=15:04"`
}

type Service interface {
	AddSlot(ctx context.Context, proID int64, date, hour string) (*models.Slot, error)
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
// @Summary Новый слот
// @Tags Professional
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Дата и время"
// @Success 201 {object} response.Response{data=models.Slot}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 409 {object} response.ErrorResponse "Слот на это время уже есть"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /pro/calendar/slot [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.calendar.addslot"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
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

	slot, err := h.service.AddSlot(r.Context(), id.ID, req.Date, req.Hour)
	if errors.Is(err, services.ErrSlotExists) {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("slot already exists"))
		return
	}
	if err != nil {
		log.Error("failed to add slot", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to add slot"))
		return
	}

	log.Info("slot added", slog.Int64("slot_id", slot.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(slot))
}
