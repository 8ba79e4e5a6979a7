// Package validatestudent подтверждает студенческий статус по email учебного заведения.
package validatestudent

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
	services "github.com/serpleno/serpleno/internal/services/account"
)

// Request: email учебного заведения и код подтверждения.
type Request struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type Service interface {
	ValidateStudent(ctx context.Context, id models.Identity, email string) (*services.Session, error)
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
// @Summary Подтверждение студента
// @Description Переводит пользователя на студенческий план и выдает новый токен.
// @Tags Account
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Email и код"
// @Success 200 {object} response.Response{data=services.Session}
// @Failure 400 {object} response.ErrorResponse "Email не учебного заведения"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /validate-student [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.validatestudent"

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

	sess, err := h.service.ValidateStudent(r.Context(), id, req.Email)
	switch {
	case errors.Is(err, services.ErrNotInstitutional):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("an institutional email is required"))
		return
	case errors.Is(err, services.ErrUserNotFound):
		middlewarectx.Unauthorized(w, r)
		return
	case err != nil:
		log.Error("failed to validate student", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to validate student"))
		return
	}

	render.JSON(w, r, response.OKWithRedirect(sess.Redirect, sess))
}
