package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/serpleno/serpleno/internal/filestore"
	"github.com/serpleno/serpleno/internal/http/handlers/admin/content/contentform"
	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/request"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/content"
)

type Service interface {
	Update(ctx context.Context, actor models.Identity, id int64, in services.Input, file *models.File) (*models.Content, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	limits   request.Limits
}

func New(log *slog.Logger, service Service, limits request.Limits) *Handler {
	return &Handler{log: log, service: service, validate: validator.New(), limits: limits}
}

// ServeHTTP godoc
// @Summary Изменение материала
// @Description Специалист может менять только свои материалы.
// @Tags Admin
// @Accept  multipart/form-data
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор материала"
// @Param request body contentform.Form true "Поля материала"
// @Success 200 {object} response.Response{data=models.Content}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Материал не найден"
// @Failure 413 {object} response.ErrorResponse "Слишком большое тело запроса"
// @Failure 415 {object} response.ErrorResponse "Недопустимый тип файла"
// @Router /admin/content/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.content.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	form, file, err := contentform.Parse(w, r, h.validate, h.limits)
	if err != nil {
		log.Error("invalid content form", sl.Err(err))
		if errors.Is(err, request.ErrTooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("request body too large"))
			return
		}
		render.Status(r, http.StatusBadRequest)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	item, err := h.service.Update(r.Context(), actor, id, form.Input(), file)
	switch {
	case errors.Is(err, services.ErrContentNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("content not found"))
		return
	case errors.Is(err, filestore.ErrUnsupportedMIME):
		render.Status(r, http.StatusUnsupportedMediaType)
		render.JSON(w, r, response.Error("file type is not allowed"))
		return
	case err != nil:
		log.Error("failed to update content", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update content"))
		return
	}
	render.JSON(w, r, response.OKWithData(item))
}
