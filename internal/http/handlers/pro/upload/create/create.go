// Package create принимает файлы специалиста из multipart-формы.
//
// Поле files может содержать несколько файлов, поля title и category
// общие для всех. Файл недопустимого типа отклоняет весь запрос.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

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
	Create(ctx context.Context, proID int64, meta services.Meta, files []models.File) ([]models.Upload, error)
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
// @Summary Загрузка файлов
// @Description Допустимые типы: mp4, jpeg, png, webp, pdf.
// @Tags Professional
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param files formData file true "Файлы"
// @Param title formData string false "Название"
// @Param category formData string false "Категория"
// @Success 201 {object} response.Response{data=[]models.Upload}
// @Failure 400 {object} response.ErrorResponse "Нет файлов"
// @Failure 413 {object} response.ErrorResponse "Слишком большое тело запроса"
// @Failure 415 {object} response.ErrorResponse "Недопустимый тип файла"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /pro/upload [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.upload.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
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
	files, err := request.Files(r, "files")
	if err != nil {
		log.Error("failed to read files", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read files"))
		return
	}

	meta := services.Meta{Title: r.FormValue("title"), Category: r.FormValue("category")}
	uploads, err := h.service.Create(r.Context(), id.ID, meta, files)
	switch {
	case errors.Is(err, services.ErrNoFiles):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("at least one file is required"))
		return
	case errors.Is(err, filestore.ErrUnsupportedMIME):
		render.Status(r, http.StatusUnsupportedMediaType)
		render.JSON(w, r, response.Error("file type is not allowed"))
		return
	case err != nil:
		log.Error("failed to save uploads", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to upload files"))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(uploads))
}
