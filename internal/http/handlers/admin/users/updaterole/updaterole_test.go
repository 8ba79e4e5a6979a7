package updaterole

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/admin"
)

type AdminServiceMock struct {
	mock.Mock
}

func (m *AdminServiceMock) UpdateRole(ctx context.Context, actor models.Identity, id int64, role string) (*models.User, error) {
	args := m.Called(ctx, actor, id, role)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func TestUpdateRoleHandler(t *testing.T) {
	admin := models.Identity{ID: 1, Role: "admin", Plan: "premium"}

	tests := []struct {
		name       string
		body       string
		call       bool
		user       *models.User
		err        error
		wantStatus int
		wantError  string
	}{
		{"promote to professional", `{"id":5,"role":"professional"}`, true, &models.User{ID: 5, Role: "professional"}, nil, http.StatusOK, ""},
		{"unknown role", `{"id":5,"role":"root"}`, false, nil, nil, http.StatusBadRequest, "field Role must be one of: client professional admin"},
		{"missing user", `{"id":5,"role":"professional"}`, true, nil, services.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"self demotion", `{"id":5,"role":"professional"}`, true, nil, services.ErrSelfChange, http.StatusConflict, "you cannot change your own role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AdminServiceMock)
			if tt.call {
				svc.On("UpdateRole", mock.Anything, admin, int64(5), "professional").Return(tt.user, tt.err).Once()
			}
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodPost, "/admin/users/update-role", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req.WithContext(middlewarectx.WithIdentity(req.Context(), admin)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}
