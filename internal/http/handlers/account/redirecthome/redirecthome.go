package redirecthome

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/policy"
)

// ServeHTTP godoc
// @Summary Стартовая страница
// @Description Возвращает адрес стартовой страницы для роли пользователя.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Router /redirect-home [get]
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		middlewarectx.Unauthorized(w, r)
		return
	}
	render.JSON(w, r, response.OKWithRedirect(policy.HomeRedirect(id.Role), nil))
}
