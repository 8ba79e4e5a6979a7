// Package home отдает данные главной страницы клиента.
package home

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/models"
)

// Slides: изображения карусели главной страницы.
var Slides = []string{"slide1.png", "slide2.png", "slide3.png", "slide4.png"}

// Page: данные главной страницы.
type Page struct {
	User   models.Identity `json:"user"`
	Slides []string        `json:"slides"`
}

// ServeHTTP godoc
// @Summary Главная страница
// @Tags Client
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Page}
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Router /home [get]
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}
	render.JSON(w, r, response.OKWithData(Page{User: id, Slides: Slides}))
}
