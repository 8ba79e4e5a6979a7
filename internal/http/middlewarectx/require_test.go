package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serpleno/serpleno/internal/http/middlewarectx"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
)

func TestRequire(t *testing.T) {
	tests := []struct {
		name         string
		identity     *models.Identity
		action       policy.Action
		wantStatus   int
		wantRedirect string
	}{
		{
			name:         "no identity",
			action:       policy.BookAppointment,
			wantStatus:   http.StatusUnauthorized,
			wantRedirect: policy.LoginPath,
		},
		{
			name:         "free plan cannot book",
			identity:     &models.Identity{ID: 1, Role: policy.RoleClient, Plan: policy.PlanFree},
			action:       policy.BookAppointment,
			wantStatus:   http.StatusForbidden,
			wantRedirect: policy.PlansPath,
		},
		{
			name:       "student plan books",
			identity:   &models.Identity{ID: 1, Role: policy.RoleClient, Plan: policy.PlanStudent},
			action:     policy.BookAppointment,
			wantStatus: http.StatusOK,
		},
		{
			name:       "client denied pro area",
			identity:   &models.Identity{ID: 1, Role: policy.RoleClient, Plan: policy.PlanPremium},
			action:     policy.ProArea,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "professional manages content",
			identity:   &models.Identity{ID: 2, Role: policy.RoleProfessional, Plan: policy.PlanFree},
			action:     policy.ManageContent,
			wantStatus: http.StatusOK,
		},
		{
			name:       "professional denied admin area",
			identity:   &models.Identity{ID: 2, Role: policy.RoleProfessional, Plan: policy.PlanFree},
			action:     policy.AdminArea,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.Require(newNoopLogger(), tt.action)(next)

			req := newRequest(http.MethodGet, "/", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			if tt.wantStatus != http.StatusOK {
				resp := decode(t, rec)
				assert.False(t, resp.OK)
				assert.Equal(t, tt.wantRedirect, resp.Redirect)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.001, 2)(next)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(http.MethodPost, "/auth/login", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
