// Package services содержит каталог планов и оплату через платёжного провайдера.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/paymentprovider"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
)

var (
	// ErrUnknownPlan: плана нет в каталоге.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrNotPayable: план бесплатный или период неизвестен.
	ErrNotPayable = errors.New("plan cannot be paid for this period")
	// ErrPaymentsDisabled: провайдер не настроен.
	ErrPaymentsDisabled = errors.New("payments are not configured")
	// ErrStudentNotVerified: студенческий план оплачивается после подтверждения email.
	ErrStudentNotVerified = errors.New("student status is not verified")
	// ErrNotPaid: сессия ещё не оплачена.
	ErrNotPaid = errors.New("payment is not completed")
	// ErrForeignSession: сессия создана для другого пользователя.
	ErrForeignSession = errors.New("payment session belongs to another user")
	// ErrUserNotFound: учётная запись из токена удалена.
	ErrUserNotFound = errors.New("user not found")
)

// Provider создаёт и читает платёжные сессии.
type Provider interface {
	CreateCheckout(ctx context.Context, req paymentprovider.CheckoutRequest) (*paymentprovider.Checkout, error)
	GetCheckout(ctx context.Context, id string) (*paymentprovider.Session, error)
}

// Receipt: результат подтверждённой оплаты.
type Receipt struct {
	Token    string          `json:"token"`
	Redirect string          `json:"redirect"`
	Plan     string          `json:"plan"`
	Period   string          `json:"period"`
	User     models.Identity `json:"user"`
}

// PaymentService отвечает за каталог и оплату планов.
type PaymentService struct {
	db       storage.Gateway
	provider Provider
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
// provider может быть nil, тогда оплата недоступна.
func NewPaymentService(db storage.Gateway, provider Provider, jwtMaker jwt.Maker, log *slog.Logger) *PaymentService {
	return &PaymentService{db: db, provider: provider, jwtMaker: jwtMaker, log: log}
}

// Catalog возвращает все планы.
func (s *PaymentService) Catalog() []policy.Plan {
	out := make([]policy.Plan, len(policy.Catalog))
	copy(out, policy.Catalog)
	return out
}

// Detail возвращает план по коду.
func (s *PaymentService) Detail(code string) (policy.Plan, error) {
	p, ok := policy.Lookup(code)
	if !ok {
		return policy.Plan{}, ErrUnknownPlan
	}
	return p, nil
}

// Checkout создаёт платёжную сессию на план и период.
func (s *PaymentService) Checkout(ctx context.Context, id models.Identity, code, period string) (*paymentprovider.Checkout, error) {
	const op = "services.payment.Checkout"

	if s.provider == nil {
		return nil, ErrPaymentsDisabled
	}
	plan, ok := policy.Lookup(code)
	if !ok {
		return nil, ErrUnknownPlan
	}
	if period == "" {
		period = policy.PeriodMonthly
	}
	amount, err := plan.Price(period)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPayable, err)
	}
	if plan.Code == policy.PlanStudent && id.Plan != policy.PlanStudent {
		return nil, ErrStudentNotVerified
	}

	checkout, err := s.provider.CreateCheckout(ctx, paymentprovider.CheckoutRequest{
		UserID:   id.ID,
		Email:    id.Email,
		Plan:     plan.Code,
		PlanName: plan.Name,
		Period:   period,
		Amount:   amount,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("checkout created",
		slog.Int64("user_id", id.ID),
		slog.String("plan", plan.Code),
		slog.String("session_id", checkout.ID),
	)
	return checkout, nil
}

// Confirm проверяет оплату сессии, записывает план и перевыпускает токен.
func (s *PaymentService) Confirm(ctx context.Context, id models.Identity, sessionID string) (*Receipt, error) {
	const op = "services.payment.Confirm"

	if s.provider == nil {
		return nil, ErrPaymentsDisabled
	}
	sess, err := s.provider.GetCheckout(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sess.Reference != strconv.FormatInt(id.ID, 10) {
		s.log.Warn("foreign payment session", slog.Int64("user_id", id.ID), slog.String("session_id", sessionID))
		return nil, ErrForeignSession
	}
	if !sess.Paid {
		return nil, ErrNotPaid
	}
	if !policy.ValidPlan(sess.Plan) {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownPlan, sess.Plan)
	}

	updated, err := s.db.Tables().Users.Update(ctx, storage.Filter{"id": id.ID}, storage.Values{"plan": sess.Plan})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(updated) == 0 {
		return nil, ErrUserNotFound
	}
	identity := updated[0].Identity()
	token, err := s.jwtMaker.CreateSession(identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment confirmed", slog.Int64("user_id", id.ID), slog.String("plan", sess.Plan))
	return &Receipt{
		Token:    token,
		Redirect: policy.HomeRedirect(identity.Role),
		Plan:     sess.Plan,
		Period:   sess.Period,
		User:     identity,
	}, nil
}
