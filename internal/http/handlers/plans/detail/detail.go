package detail

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/policy"
	services "github.com/serpleno/serpleno/internal/services/payment"
)

type Service interface {
	Detail(code string) (policy.Plan, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Описание плана
// @Tags Plans
// @Produce  json
// @Param plan query string true "Код плана"
// @Success 200 {object} response.Response{data=policy.Plan}
// @Failure 400 {object} response.ErrorResponse "Не указан план"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Router /plan/detail [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.detail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := r.URL.Query().Get("plan")
	if code == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("plan is required"))
		return
	}

	plan, err := h.service.Detail(code)
	if errors.Is(err, services.ErrUnknownPlan) {
		log.Info("unknown plan requested", sl.Err(err), slog.String("plan", code))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("plan not found"))
		return
	}
	if err != nil {
		log.Error("failed to read plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read plan"))
		return
	}

	render.JSON(w, r, response.OKWithData(plan))
}
