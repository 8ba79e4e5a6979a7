package list

import (
	"context"
	"encoding/json"
	"errors"
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
)

type ContentServiceMock struct {
	mock.Mock
}

func (m *ContentServiceMock) List(ctx context.Context, plan string) ([]models.Content, error) {
	args := m.Called(ctx, plan)
	items, _ := args.Get(0).([]models.Content)
	return items, args.Error(1)
}

func TestListHandler(t *testing.T) {
	tests := []struct {
		name       string
		plan       string
		items      []models.Content
		err        error
		wantStatus int
		wantCount  int
	}{
		{"free plan", "free", []models.Content{{ID: 1, Title: "Intro", IsFree: true}}, nil, http.StatusOK, 1},
		{"premium plan", "premium", []models.Content{{ID: 1, IsFree: true}, {ID: 2}}, nil, http.StatusOK, 2},
		{"cache and db down", "silver", nil, errors.New("boom"), http.StatusInternalServerError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ContentServiceMock)
			svc.On("List", mock.Anything, tt.plan).Return(tt.items, tt.err).Once()
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodGet, "/content", nil)
			req = req.WithContext(middlewarectx.WithIdentity(req.Context(), models.Identity{ID: 1, Role: "client", Plan: tt.plan}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got struct {
				OK   bool             `json:"ok"`
				Data []models.Content `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.err == nil, got.OK)
			assert.Len(t, got.Data, tt.wantCount)
			svc.AssertExpectations(t)
		})
	}
}
