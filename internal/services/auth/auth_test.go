package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/lib/password"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	services "github.com/serpleno/serpleno/internal/services/auth"
	"github.com/serpleno/serpleno/internal/storage"
	"github.com/serpleno/serpleno/internal/storage/memory"
)

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) CreateSession(identity models.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) VerifySession(token string) (*jwt.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.Claims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newMaker(t *testing.T) *jwt.MakerImpl {
	t.Helper()
	maker, err := jwt.NewJWTMaker("test_secret_key_1234567890", 0)
	require.NoError(t, err)
	return maker
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	maker := newMaker(t)
	svc := services.NewAuthService(memory.New(), maker, newNoopLogger())
	ctx := context.Background()

	tests := []struct {
		name, email, password string
	}{
		{"plain", "ana@example.com", "secret123"},
		{"mixed case email", "  Luis@Example.COM ", "p4ssw0rd!"},
		{"unicode name and password", "maria@example.cl", "contraseña✓"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Register(ctx, tt.name, tt.email, tt.password)
			require.NoError(t, err)
			assert.Equal(t, policy.RoleClient, user.Role)
			assert.Equal(t, policy.PlanFree, user.Plan)
			assert.NotEqual(t, tt.password, user.PasswordHash)

			res, err := svc.Login(ctx, tt.email, tt.password)
			require.NoError(t, err)
			assert.Equal(t, policy.HomePath, res.Redirect)

			claims, err := maker.VerifySession(res.Token)
			require.NoError(t, err)
			assert.Equal(t, policy.RoleClient, claims.Role)
			assert.Equal(t, policy.PlanFree, claims.Plan)
			assert.Equal(t, user.ID, claims.ID)
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc := services.NewAuthService(memory.New(), newMaker(t), newNoopLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Ana Again", "ANA@example.com", "other")
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestAuthService_Login(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	hash, err := password.Hash("correctpassword")
	require.NoError(t, err)
	pro, err := db.Tables().Users.Insert(ctx, storage.Values{
		"name": "Dr. Rojas", "email": "rojas@example.com", "password_hash": hash,
		"role": policy.RoleProfessional, "plan": policy.PlanFree,
	})
	require.NoError(t, err)

	tests := []struct {
		name         string
		email        string
		password     string
		setupMocks   func(j *JwtMakerMock)
		wantErr      error
		wantErrMsg   string
		wantRedirect string
	}{
		{
			name:     "successful login",
			email:    "rojas@example.com",
			password: "correctpassword",
			setupMocks: func(j *JwtMakerMock) {
				j.On("CreateSession", pro.Identity()).Return("jwt-token-123", nil).Once()
			},
			wantRedirect: "/pro/dashboard",
		},
		{
			name:       "unknown email",
			email:      "nobody@example.com",
			password:   "correctpassword",
			setupMocks: func(*JwtMakerMock) {},
			wantErr:    services.ErrInvalidCredentials,
		},
		{
			name:       "wrong password",
			email:      "rojas@example.com",
			password:   "wrongpassword",
			setupMocks: func(*JwtMakerMock) {},
			wantErr:    services.ErrInvalidCredentials,
		},
		{
			name:     "token generation error",
			email:    "rojas@example.com",
			password: "correctpassword",
			setupMocks: func(j *JwtMakerMock) {
				j.On("CreateSession", mock.Anything).Return("", errors.New("token error")).Once()
			},
			wantErrMsg: "token error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(jwtMock)
			svc := services.NewAuthService(db, jwtMock, newNoopLogger())

			res, err := svc.Login(ctx, tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, "jwt-token-123", res.Token)
				assert.Equal(t, tt.wantRedirect, res.Redirect)
				assert.Equal(t, pro.Identity(), res.User)
			}
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	db := memory.New()
	svc := services.NewAuthService(db, newMaker(t), newNoopLogger())
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "Admin@Serpleno.cl", "admin-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@serpleno.cl", "ignored"))

	admins, err := db.Tables().Users.All(ctx, storage.Where(storage.Filter{"role": policy.RoleAdmin}))
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@serpleno.cl", admins[0].Email)

	res, err := svc.Login(ctx, "admin@serpleno.cl", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, "/admin/dashboard", res.Redirect)

	_, err = svc.Register(ctx, "Luis", "luis@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin(ctx, "luis@example.com", "whatever"))
	luis, err := db.Tables().Users.One(ctx, storage.Where(storage.Filter{"email": "luis@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, policy.RoleAdmin, luis.Role)
}
