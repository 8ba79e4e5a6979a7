package middlewarectx_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/http/response"
	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
)

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) VerifySession(token string) (*jwt.Claims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*jwt.Claims)
	return claims, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "test-request-id")
	return req.WithContext(ctx)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var premiumClient = models.Identity{ID: 7, Name: "Ana", Email: "ana@example.com", Role: policy.RoleClient, Plan: policy.PlanPremium}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		mockToken  string
		mockClaims *jwt.Claims
		mockErr    error
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "missing Authorization header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid Authorization header prefix",
			authHeader: "Basic sometoken",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token rejected",
			authHeader: "Bearer bad",
			mockToken:  "bad",
			mockErr:    jwt.ErrInvalidToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			authHeader: "Bearer good",
			mockToken:  "good",
			mockClaims: &jwt.Claims{Identity: premiumClient},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(VerifierMock)
			if tt.mockToken != "" {
				verifier.On("VerifySession", tt.mockToken).Return(tt.mockClaims, tt.mockErr).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				id, ok := middlewarectx.IdentityFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, premiumClient, id)
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.NewAuth(verifier, newNoopLogger()).RequireAuth(next)

			req := newRequest(http.MethodGet, "/home", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if !tt.wantCalled {
				resp := decode(t, rec)
				assert.False(t, resp.OK)
				assert.Equal(t, policy.LoginPath, resp.Redirect)
			}
			verifier.AssertExpectations(t)
		})
	}
}

func TestRequireAuth_BodyTokenFallback(t *testing.T) {
	verifier := new(VerifierMock)
	verifier.On("VerifySession", "from-body").Return(&jwt.Claims{Identity: premiumClient}, nil).Once()

	var seenBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seenBody = string(b)
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.NewAuth(verifier, newNoopLogger()).RequireAuth(next)

	body := `{"token":"from-body","plan":"silver"}`
	req := newRequest(http.MethodPost, "/update-plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, seenBody)
	verifier.AssertExpectations(t)
}

func TestOptionalAuth(t *testing.T) {
	verifier := new(VerifierMock)
	verifier.On("VerifySession", "bad").Return(nil, jwt.ErrInvalidToken).Once()

	var attached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, attached = middlewarectx.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.NewAuth(verifier, newNoopLogger()).OptionalAuth(next)

	req := newRequest(http.MethodGet, "/plans", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, attached)
	verifier.AssertExpectations(t)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		contentType string
		body        string
		want        string
	}{
		{"bearer header", "Bearer abc", "", "", "abc"},
		{"header wins over body", "Bearer abc", "application/json", `{"token":"xyz"}`, "abc"},
		{"json body", "", "application/json; charset=utf-8", `{"token":"xyz"}`, "xyz"},
		{"non json body ignored", "", "text/plain", `{"token":"xyz"}`, ""},
		{"broken json", "", "application/json", `{"token":`, ""},
		{"nothing", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/", body)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			assert.Equal(t, tt.want, middlewarectx.ExtractToken(req))
		})
	}
}

func TestExtractToken_LargeBodyKeptWhole(t *testing.T) {
	body := `{"token":"xyz","blob":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	// токен за пределами просматриваемого префикса не находится
	assert.Equal(t, "", middlewarectx.ExtractToken(req))

	got, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, len(body), len(got))
	assert.Equal(t, body, string(got))
	require.NoError(t, req.Body.Close())
}
