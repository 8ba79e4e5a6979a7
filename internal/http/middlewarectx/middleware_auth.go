// Package middlewarectx содержит HTTP middleware авторизации платформы.
//
// Проверка идёт в два этапа. RequireAuth и OptionalAuth извлекают токен,
// проверяют его и кладут снимок пользователя в контекст запроса. Require
// затем сверяет роль и план с таблицей политик и токен повторно не проверяет.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Identity: ключ для снимка пользователя в контексте.
const Identity Key = "identity"

// Verifier проверяет сессионный токен.
type Verifier interface {
	VerifySession(token string) (*jwt.Claims, error)
}

// WithIdentity возвращает контекст с привязанным пользователем.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, Identity, id)
}

// IdentityFrom достаёт пользователя из контекста. false означает анонимный запрос.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(Identity).(models.Identity)
	return id, ok
}

// Unauthorized отвечает 401 с подсказкой перейти на страницу входа.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.ErrorWithRedirect("authentication required", policy.LoginPath))
}

// Auth: этап идентификации.
type Auth struct {
	verifier Verifier
	log      *slog.Logger
}

// NewAuth создаёт middleware идентификации поверх verifier.
func NewAuth(verifier Verifier, log *slog.Logger) *Auth {
	return &Auth{verifier: verifier, log: log}
}

// RequireAuth пропускает дальше только запросы с действительным токеном.
// Иначе отвечает 401 с подсказкой перейти на страницу входа.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middlewarectx.RequireAuth"
		log := a.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := a.identify(r)
		if err != nil {
			log.Info("unauthenticated request", slog.String("path", r.URL.Path), sl.Err(err))
			Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// OptionalAuth привязывает пользователя, если токен действителен, и в любом случае пропускает запрос.
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (a *Auth) identify(r *http.Request) (models.Identity, error) {
	token := ExtractToken(r)
	if token == "" {
		return models.Identity{}, jwt.ErrInvalidToken
	}
	claims, err := a.verifier.VerifySession(token)
	if err != nil {
		return models.Identity{}, err
	}
	return claims.Identity, nil
}
