package slots

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/month"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
)

type Service interface {
	Slots(ctx context.Context, proID int64, date string) ([]models.Slot, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Свободные слоты
// @Tags Schedule
// @Produce  json
// @Security BearerAuth
// @Param pro_id query int true "Идентификатор специалиста"
// @Param date query string true "Дата YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]models.Slot}
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /schedule/slots [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.slots"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	proID, err := strconv.ParseInt(q.Get("pro_id"), 10, 64)
	if err != nil || proID <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid pro_id"))
		return
	}
	date := q.Get("date")
	if !month.ValidDate(date) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date"))
		return
	}

	slots, err := h.service.Slots(r.Context(), proID, date)
	if err != nil {
		log.Error("failed to list slots", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list slots"))
		return
	}
	render.JSON(w, r, response.OKWithData(slots))
}
