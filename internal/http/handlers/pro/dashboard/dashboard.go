package dashboard

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/models"
)

// Tools: разделы кабинета специалиста.
type Tools struct {
	Calendar      bool `json:"calendar"`
	Upload        bool `json:"upload"`
	Content       bool `json:"content"`
	Notifications bool `json:"notifications"`
	Clients       bool `json:"clients"`
}

// Page: данные кабинета специалиста.
type Page struct {
	User  models.Identity `json:"user"`
	Tools Tools           `json:"tools"`
}

// ServeHTTP godoc
// @Summary Кабинет специалиста
// @Tags Professional
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Page}
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 403 {object} response.ErrorResponse "Только для специалистов"
// @Router /pro/dashboard [get]
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}
	render.JSON(w, r, response.OKWithData(Page{
		User:  id,
		Tools: Tools{Calendar: true, Upload: true, Content: true, Notifications: true, Clients: true},
	}))
}
