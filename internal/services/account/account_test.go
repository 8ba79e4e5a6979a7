package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	services "github.com/serpleno/serpleno/internal/services/account"
	"github.com/serpleno/serpleno/internal/storage"
	"github.com/serpleno/serpleno/internal/storage/memory"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func setup(t *testing.T) (*services.AccountService, *jwt.MakerImpl, storage.Gateway, models.Identity) {
	t.Helper()
	db := memory.New()
	maker, err := jwt.NewJWTMaker("test_secret_key_1234567890", 0)
	require.NoError(t, err)
	user, err := db.Tables().Users.Insert(context.Background(), storage.Values{
		"name": "Ana", "email": "ana@example.com", "password_hash": "x",
		"role": policy.RoleClient, "plan": policy.PlanFree,
	})
	require.NoError(t, err)
	return services.NewAccountService(db, maker, newNoopLogger()), maker, db, user.Identity()
}

func TestIsInstitutional(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ana@uchile.edu", true},
		{"ana.perez@alumnos.uc.edu.cl", true},
		{"ANA@MIT.EDU", true},
		{"ana@gmail.com", false},
		{"ana@edu.com", false},
		{"ana@school.edu.chile", false},
		{"@uchile.edu", false},
		{"ana@uchile.edu ", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, services.IsInstitutional(tt.email))
		})
	}
}

func TestAccountService_ValidateStudent(t *testing.T) {
	svc, maker, db, id := setup(t)
	ctx := context.Background()

	_, err := svc.ValidateStudent(ctx, id, "ana@gmail.com")
	assert.ErrorIs(t, err, services.ErrNotInstitutional)

	sess, err := svc.ValidateStudent(ctx, id, "ana@uchile.edu.cl")
	require.NoError(t, err)
	assert.Equal(t, services.StudentPayPath, sess.Redirect)

	claims, err := maker.VerifySession(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, policy.PlanStudent, claims.Plan)

	stored, err := db.Tables().Users.One(ctx, storage.Where(storage.Filter{"id": id.ID}))
	require.NoError(t, err)
	assert.Equal(t, policy.PlanStudent, stored.Plan)
}

func TestAccountService_UpdatePlan(t *testing.T) {
	svc, maker, _, id := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		plan    string
		wantErr error
	}{
		{"silver", policy.PlanSilver, nil},
		{"premium", policy.PlanPremium, nil},
		{"back to free", policy.PlanFree, nil},
		{"unknown", "gold", services.ErrUnknownPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.UpdatePlan(ctx, id, tt.plan)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			claims, err := maker.VerifySession(sess.Token)
			require.NoError(t, err)
			assert.Equal(t, tt.plan, claims.Plan)
			assert.Equal(t, id.ID, claims.ID)
		})
	}
}

func TestAccountService_UpdatePlanDeletedUser(t *testing.T) {
	svc, _, _, _ := setup(t)
	_, err := svc.UpdatePlan(context.Background(), models.Identity{ID: 999}, policy.PlanSilver)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
