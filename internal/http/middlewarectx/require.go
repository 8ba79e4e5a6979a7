package middlewarectx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/policy"
)

// Require создает middleware, пропускающий запрос только если роль и план
// пользователя из контекста разрешают action. Ставится после RequireAuth.
func Require(log *slog.Logger, action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Require"
			log := log.With(
				slog.String("op", op),
				slog.String("action", string(action)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			id, ok := IdentityFrom(r.Context())
			if !ok {
				log.Error("identity missing in context")
				Unauthorized(w, r)
				return
			}

			if err := policy.Check(id.Role, id.Plan, action); err != nil {
				log.Info("access denied", slog.Int64("user_id", id.ID), sl.Err(err))
				render.Status(r, http.StatusForbidden)
				if errors.Is(err, policy.ErrPlanDenied) {
					render.JSON(w, r, response.ErrorWithRedirect("your plan does not include this feature", policy.PlansPath))
					return
				}
				render.JSON(w, r, response.Error("access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
