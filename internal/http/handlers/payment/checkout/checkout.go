// Package checkout создает платёжную сессию для выбранного плана.
package checkout

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
	"github.com/serpleno/serpleno/internal/paymentprovider"
	services "github.com/serpleno/serpleno/internal/services/payment"
)

type Service interface {
	Checkout(ctx context.Context, id models.Identity, plan, period string) (*paymentprovider.Checkout, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Оплата плана
// @Description Создает сессию Stripe Checkout и возвращает адрес страницы оплаты.
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Param plan query string true "Код плана"
// @Param period query string false "monthly или yearly"
// @Success 200 {object} response.Response{data=paymentprovider.Checkout}
// @Failure 400 {object} response.ErrorResponse "План нельзя оплатить"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 403 {object} response.ErrorResponse "Студенческий статус не подтвержден"
// @Failure 503 {object} response.ErrorResponse "Оплата недоступна"
// @Router /pay [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	q := r.URL.Query()
	if q.Get("plan") == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("plan is required"))
		return
	}

	checkout, err := h.service.Checkout(r.Context(), id, q.Get("plan"), q.Get("period"))
	switch {
	case errors.Is(err, services.ErrPaymentsDisabled):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("payments are temporarily unavailable"))
		return
	case errors.Is(err, services.ErrUnknownPlan), errors.Is(err, services.ErrNotPayable):
		log.Info("checkout rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("this plan cannot be purchased"))
		return
	case errors.Is(err, services.ErrStudentNotVerified):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("student status must be verified first"))
		return
	case err != nil:
		log.Error("failed to create checkout", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start payment"))
		return
	}

	render.JSON(w, r, response.OKWithRedirect(checkout.URL, checkout))
}
