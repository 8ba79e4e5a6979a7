// Package services содержит логику регистрации и входа пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/lib/password"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
)

var (
	// ErrInvalidCredentials: неверный email или пароль. Причина не уточняется.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken: email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
)

// LoginResult: результат успешного входа.
type LoginResult struct {
	Token    string          `json:"token"`
	Redirect string          `json:"redirect"`
	User     models.Identity `json:"user"`
}

// AuthService отвечает за регистрацию и вход.
type AuthService struct {
	db       storage.Gateway
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(db storage.Gateway, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		db:       db,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает клиента на бесплатном плане.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*models.User, error) {
	const op = "services.auth.Register"

	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.db.Tables().Users.Insert(ctx, storage.Values{
		"name":          strings.TrimSpace(name),
		"email":         normalizeEmail(email),
		"password_hash": hashed,
		"role":          policy.RoleClient,
		"plan":          policy.PlanFree,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Login проверяет пароль и выпускает сессионный токен.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	const op = "services.auth.Login"

	user, err := s.db.Tables().Users.One(ctx, storage.Where(storage.Filter{"email": normalizeEmail(email)}))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.Compare(user.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	identity := user.Identity()
	token, err := s.jwtMaker.CreateSession(identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LoginResult{
		Token:    token,
		Redirect: policy.HomeRedirect(user.Role),
		User:     identity,
	}, nil
}

// EnsureAdmin гарантирует наличие администратора с данным email.
// Существующая учётная запись получает роль admin, пароль не меняется.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, rawPassword string) error {
	const op = "services.auth.EnsureAdmin"

	email = normalizeEmail(email)
	users := s.db.Tables().Users
	user, err := users.One(ctx, storage.Where(storage.Filter{"email": email}))
	switch {
	case err == nil:
		if user.Role == policy.RoleAdmin {
			return nil
		}
		if _, err := users.Update(ctx, storage.Filter{"id": user.ID}, storage.Values{"role": policy.RoleAdmin}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("user promoted to admin", slog.Int64("user_id", user.ID))
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	created, err := users.Insert(ctx, storage.Values{
		"name":          "Administrator",
		"email":         email,
		"password_hash": hashed,
		"role":          policy.RoleAdmin,
		"plan":          policy.PlanPremium,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin account created", slog.Int64("user_id", created.ID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
