package month

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	services "github.com/serpleno/serpleno/internal/services/calendar"
)

type Service interface {
	Month(ctx context.Context, proID int64, year, mon int) (*services.MonthView, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, now: time.Now}
}

// ServeHTTP godoc
// @Summary Календарь на месяц
// @Description Слоты и записи специалиста за месяц. Без параметров берется текущий месяц.
// @Tags Professional
// @Produce  json
// @Security BearerAuth
// @Param month query int false "Месяц 1-12"
// @Param year query int false "Год"
// @Success 200 {object} response.Response{data=services.MonthView}
// @Failure 400 {object} response.ErrorResponse "Некорректный месяц"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /pro/calendar [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.calendar.month"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	now := h.now()
	year, mon := now.Year(), int(now.Month())
	q := r.URL.Query()
	var err error
	if s := q.Get("year"); s != "" {
		if year, err = strconv.Atoi(s); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid year"))
			return
		}
	}
	if s := q.Get("month"); s != "" {
		if mon, err = strconv.Atoi(s); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid month"))
			return
		}
	}

	view, err := h.service.Month(r.Context(), id.ID, year, mon)
	if errors.Is(err, services.ErrInvalidMonth) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid month"))
		return
	}
	if err != nil {
		log.Error("failed to read calendar", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read calendar"))
		return
	}
	render.JSON(w, r, response.OKWithData(view))
}
