package validatestudent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/account"
)

type AccountServiceMock struct {
	mock.Mock
}

func (m *AccountServiceMock) ValidateStudent(ctx context.Context, id models.Identity, email string) (*services.Session, error) {
	args := m.Called(ctx, id, email)
	s, _ := args.Get(0).(*services.Session)
	return s, args.Error(1)
}

var client = models.Identity{ID: 5, Name: "Luis", Email: "luis@example.com", Role: "client", Plan: "free"}

func TestValidateStudentHandler(t *testing.T) {
	tests := []struct {
		name         string
		identity     bool
		body         string
		mockSess     *services.Session
		mockErr      error
		wantStatus   int
		wantRedirect string
	}{
		{
			name:         "student confirmed",
			identity:     true,
			body:         `{"email":"luis@uchile.edu.cl","code":"1234"}`,
			mockSess:     &services.Session{Token: "new", Redirect: services.StudentPayPath},
			wantStatus:   http.StatusOK,
			wantRedirect: services.StudentPayPath,
		},
		{
			name:       "not institutional",
			identity:   true,
			body:       `{"email":"luis@gmail.com","code":"1234"}`,
			mockErr:    services.ErrNotInstitutional,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing code",
			identity:   true,
			body:       `{"email":"luis@uchile.edu.cl"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:         "anonymous",
			body:         `{"email":"luis@uchile.edu.cl","code":"1234"}`,
			wantStatus:   http.StatusUnauthorized,
			wantRedirect: "/login",
		},
		{
			name:       "storage failure",
			identity:   true,
			body:       `{"email":"luis@uchile.edu.cl","code":"1234"}`,
			mockErr:    errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AccountServiceMock)
			if tt.mockSess != nil || tt.mockErr != nil {
				var in struct{ Email string }
				require.NoError(t, json.Unmarshal([]byte(tt.body), &in))
				svc.On("ValidateStudent", mock.Anything, client, in.Email).Return(tt.mockSess, tt.mockErr).Once()
			}
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodPost, "/validate-student", bytes.NewBufferString(tt.body))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.identity {
				ctx = middlewarectx.WithIdentity(ctx, client)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus == http.StatusOK, got["ok"])
			if tt.wantRedirect != "" {
				assert.Equal(t, tt.wantRedirect, got["redirect"])
			}
			svc.AssertExpectations(t)
		})
	}
}
