package portal

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/models"
)

// Sections: разделы портала подписчика.
type Sections struct {
	Schedule      bool `json:"schedule"`
	Notifications bool `json:"notifications"`
	Content       bool `json:"content"`
	Payments      bool `json:"payments"`
}

// Page: данные портала.
type Page struct {
	User      models.Identity `json:"user"`
	Dashboard Sections        `json:"dashboard"`
}

// ServeHTTP godoc
// @Summary Портал подписчика
// @Description Доступен планам silver, premium и student.
// @Tags Client
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Page}
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 403 {object} response.ErrorResponse "План не включает портал"
// @Router /portal [get]
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}
	render.JSON(w, r, response.OKWithData(Page{
		User:      id,
		Dashboard: Sections{Schedule: true, Notifications: true, Content: true, Payments: true},
	}))
}
