// Package services содержит операции над планом текущего пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
)

var (
	// ErrNotInstitutional: email не принадлежит учебному заведению.
	ErrNotInstitutional = errors.New("email is not institutional")
	// ErrUnknownPlan: плана нет в каталоге.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrUserNotFound: учётная запись из токена удалена.
	ErrUserNotFound = errors.New("user not found")
)

var institutionalEmail = regexp.MustCompile(`(?i)^[\w.+-]+@[\w.-]+\.edu(\.[a-z]{2})?$`)

// StudentPayPath: куда отправить студента после подтверждения.
const StudentPayPath = "/pay?plan=" + policy.PlanStudent

// Session: новый токен после смены плана.
type Session struct {
	Token    string          `json:"token"`
	Redirect string          `json:"redirect,omitempty"`
	User     models.Identity `json:"user"`
}

// AccountService меняет план пользователя и перевыпускает токен.
type AccountService struct {
	db       storage.Gateway
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAccountService создает новый экземпляр AccountService.
func NewAccountService(db storage.Gateway, jwtMaker jwt.Maker, log *slog.Logger) *AccountService {
	return &AccountService{db: db, jwtMaker: jwtMaker, log: log}
}

// IsInstitutional проверяет email учебного заведения (домен .edu или .edu.xx).
func IsInstitutional(email string) bool {
	return institutionalEmail.MatchString(email)
}

// ValidateStudent переводит пользователя на студенческий план. Код подтверждения
// проверяется обработчиком только на наличие.
func (s *AccountService) ValidateStudent(ctx context.Context, id models.Identity, email string) (*Session, error) {
	const op = "services.account.ValidateStudent"

	if !IsInstitutional(email) {
		return nil, ErrNotInstitutional
	}
	sess, err := s.setPlan(ctx, id, policy.PlanStudent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("student plan granted", slog.Int64("user_id", id.ID))
	sess.Redirect = StudentPayPath
	return sess, nil
}

// UpdatePlan записывает новый план и возвращает новый токен.
func (s *AccountService) UpdatePlan(ctx context.Context, id models.Identity, plan string) (*Session, error) {
	const op = "services.account.UpdatePlan"

	if !policy.ValidPlan(plan) {
		return nil, ErrUnknownPlan
	}
	sess, err := s.setPlan(ctx, id, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan updated", slog.Int64("user_id", id.ID), slog.String("plan", plan))
	return sess, nil
}

func (s *AccountService) setPlan(ctx context.Context, id models.Identity, plan string) (*Session, error) {
	updated, err := s.db.Tables().Users.Update(ctx, storage.Filter{"id": id.ID}, storage.Values{"plan": plan})
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, ErrUserNotFound
	}
	identity := updated[0].Identity()
	token, err := s.jwtMaker.CreateSession(identity)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: identity}, nil
}
