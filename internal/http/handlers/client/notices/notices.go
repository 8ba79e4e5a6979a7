package notices

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/models"
)

type Service interface {
	Notices(id models.Identity) []models.Notice
}

type Handler struct {
	service Service
}

func New(service Service) *Handler {
	return &Handler{service: service}
}

// ServeHTTP godoc
// @Summary Уведомления клиента
// @Description Фиксированные сообщения в зависимости от плана.
// @Tags Client
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Notice}
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Router /notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}
	render.JSON(w, r, response.OKWithData(h.service.Notices(id)))
}
