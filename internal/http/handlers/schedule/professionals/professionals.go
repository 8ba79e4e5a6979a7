package professionals

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
)

type Service interface {
	Professionals(ctx context.Context, specialty string) ([]models.Professional, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Специалисты
// @Description Список специалистов, при указании type только этой специальности.
// @Tags Schedule
// @Produce  json
// @Security BearerAuth
// @Param type query string false "Специальность"
// @Success 200 {object} response.Response{data=[]models.Professional}
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /schedule/professionals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.professionals"

	pros, err := h.service.Professionals(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.log.Error("failed to list professionals",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list professionals"))
		return
	}
	render.JSON(w, r, response.OKWithData(pros))
}
