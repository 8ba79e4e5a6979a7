package catalog

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/policy"
)

type Service interface {
	Catalog() []policy.Plan
}

type Handler struct {
	service Service
}

func New(service Service) *Handler {
	return &Handler{service: service}
}

// ServeHTTP godoc
// @Summary Каталог планов
// @Tags Plans
// @Produce  json
// @Success 200 {object} response.Response{data=[]policy.Plan}
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(h.service.Catalog()))
}
