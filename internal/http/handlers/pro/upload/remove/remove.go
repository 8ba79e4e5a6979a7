package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	services "github.com/serpleno/serpleno/internal/services/upload"
)

type Service interface {
	Delete(ctx context.Context, proID, id int64) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление загрузки
// @Tags Professional
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор загрузки"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Загрузка не найдена"
// @Router /pro/upload/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pro.upload.remove"

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
		log.Error("invalid id format", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	err = h.service.Delete(r.Context(), id.ID, uploadID)
	if errors.Is(err, services.ErrUploadNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("upload not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete upload", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete upload"))
		return
	}

	log.Info("upload deleted", slog.Int64("upload_id", uploadID))
	render.JSON(w, r, response.OK())
}
