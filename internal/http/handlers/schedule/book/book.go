// Package book реализует HTTP-обработчик бронирования слота клиентом.
package book

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
	"github.com/serpleno/serpleno/internal/policy"
	services "github.com/serpleno/serpleno/internal/services/schedule"
)

// Request: выбранный слот специалиста.
type Request struct {
	ProID int64  `json:"pro_id" validate:"required,gt=0"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Hour  string `json:"hour" validate:"required,datetime=15:04"`
}

type Service interface {
	Book(ctx context.Context, client models.Identity, req services.BookRequest) (*models.Appointment, error)
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
// @Summary Бронирование слота
// @Description Переводит свободный слот в reserved и создает запись. Занятый слот дает 409.
// @Tags Schedule
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Специалист, дата и время"
// @Success 201 {object} response.Response{data=models.Appointment}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 403 {object} response.ErrorResponse "План не позволяет записываться"
// @Failure 409 {object} response.ErrorResponse "Слот недоступен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /schedule/book [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.book"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		log.Error("identity not found in context")
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
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	appt, err := h.service.Book(r.Context(), id, services.BookRequest{ProID: req.ProID, Date: req.Date, Hour: req.Hour})
	switch {
	case errors.Is(err, services.ErrPlanNotEligible):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithRedirect("your plan does not include appointments", policy.PlansPath))
		return
	case errors.Is(err, services.ErrSlotUnavailable):
		log.Info("slot unavailable", slog.Int64("pro_id", req.ProID), slog.String("date", req.Date), slog.String("hour", req.Hour))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("slot is not available"))
		return
	case err != nil:
		log.Error("failed to book slot", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to book slot"))
		return
	}

	log.Info("slot booked", slog.Int64("appointment_id", appt.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(appt))
}
