package result

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
	"github.com/serpleno/serpleno/internal/policy"
	services "github.com/serpleno/serpleno/internal/services/payment"
)

type Service interface {
	Confirm(ctx context.Context, id models.Identity, sessionID string) (*services.Receipt, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Результат оплаты
// @Description Проверяет оплату сессии, меняет план и выдает новый токен.
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Param session_id query string true "Идентификатор сессии Stripe"
// @Success 200 {object} response.Response{data=services.Receipt}
// @Failure 400 {object} response.ErrorResponse "Не указана сессия"
// @Failure 402 {object} response.ErrorResponse "Оплата не завершена"
// @Failure 403 {object} response.ErrorResponse "Чужая сессия"
// @Failure 503 {object} response.ErrorResponse "Оплата недоступна"
// @Router /pay/result [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.result"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("session_id is required"))
		return
	}

	receipt, err := h.service.Confirm(r.Context(), id, sessionID)
	switch {
	case errors.Is(err, services.ErrPaymentsDisabled):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("payments are temporarily unavailable"))
		return
	case errors.Is(err, services.ErrNotPaid):
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, response.ErrorWithRedirect("payment is not completed", policy.PlansPath))
		return
	case errors.Is(err, services.ErrForeignSession):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("access denied"))
		return
	case errors.Is(err, services.ErrUserNotFound):
		middlewarectx.Unauthorized(w, r)
		return
	case err != nil:
		log.Error("failed to confirm payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to confirm payment"))
		return
	}

	render.JSON(w, r, response.OKWithRedirect(receipt.Redirect, receipt))
}
