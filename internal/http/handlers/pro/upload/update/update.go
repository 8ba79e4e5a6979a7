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

	"github.com/serpleno/serpleno/internal/filestore"
	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/request"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/upload"
)

type Service interface {
	Update(ctx context.Context, proID, id int64, meta services.Meta, file *models.File) (*models.Upload, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
	limits  request.Limits
}

func New(log *slog.Logger, service Service, limits request.Limits) *Handler {
	return &Handler{log: log, service: service, limits: limits}
}

// ServeHTTP godoc
// @Summary Изменение загрузки
// @Description Меняет название и категорию, при наличии поля file заменяет файл.
// @Tags Professional
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор загрузки"
// @Param file formData file false "Новый файл"
// @Param title formData string false "Название"
// @Param category formData string false "Категория"
// @Success 200 {object} response.Response{data=models.Upload}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Загрузка не найдена"
// @Failure 413 {object} response.ErrorResponse "Слишком большое тело запроса"
// @Failure 415 {object} response.ErrorResponse "Недопустимый тип файла"
// @Router /pro/upload/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.upload.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}

	uploadID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}
	if err := request.ParseForm(w, r, h.limits); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		if errors.Is(err, request.ErrTooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("request body too large"))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}
	file, err := request.File(r, "file")
	if err != nil {
		log.Error("failed to read file", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read file"))
		return
	}

	meta := services.Meta{Title: r.FormValue("title"), Category: r.FormValue("category")}
	upload, err := h.service.Update(r.Context(), id.ID, uploadID, meta, file)
	switch {
	case errors.Is(err, services.ErrUploadNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("upload not found"))
		return
	case errors.Is(err, filestore.ErrUnsupportedMIME):
		render.Status(r, http.StatusUnsupportedMediaType)
		render.JSON(w, r, response.Error("file type is not allowed"))
		return
	case err != nil:
		log.Error("failed to update upload", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update upload"))
		return
	}
	render.JSON(w, r, response.OKWithData(upload))
}
