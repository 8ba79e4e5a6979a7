// Package services содержит уведомления: лента специалиста, информационные
// сообщения клиента и обработчик события о новой записи.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/serpleno/serpleno/internal/events"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
)

// ErrNotificationNotFound: уведомления нет или оно чужое.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService работает с уведомлениями специалистов.
type NotificationService struct {
	db  storage.Gateway
	log *slog.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(db storage.Gateway, log *slog.Logger) *NotificationService {
	return &NotificationService{db: db, log: log}
}

// List возвращает уведомления специалиста, новые первыми.
func (s *NotificationService) List(ctx context.Context, proID int64, unreadOnly bool) ([]models.Notification, error) {
	const op = "services.notification.List"

	f := storage.Filter{"pro_id": proID}
	if unreadOnly {
		f["is_read"] = false
	}
	items, err := s.db.Tables().Notifications.All(ctx, storage.Query{Eq: f, OrderBy: []string{"-created_at", "-id"}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// SetRead отмечает собственное уведомление прочитанным или непрочитанным.
func (s *NotificationService) SetRead(ctx context.Context, proID, id int64, read bool) error {
	const op = "services.notification.SetRead"

	updated, err := s.db.Tables().Notifications.Update(ctx,
		storage.Filter{"id": id, "pro_id": proID},
		storage.Values{"is_read": read},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(updated) == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// Notices возвращает информационные сообщения клиента по его плану.
func (s *NotificationService) Notices(id models.Identity) []models.Notice {
	texts := policy.Notices(id.Name, id.Plan)
	notices := make([]models.Notice, 0, len(texts))
	for _, t := range texts {
		notices = append(notices, models.Notice{Msg: t})
	}
	return notices
}

// HandleBooked создаёт специалисту уведомление о новой записи. Повторная
// доставка того же события не создаёт второго уведомления.
func (s *NotificationService) HandleBooked(ctx context.Context, e events.AppointmentBooked) error {
	const op = "services.notification.HandleBooked"

	client := e.ClientName
	if client == "" {
		client = fmt.Sprintf("client #%d", e.ClientID)
	}
	n, err := s.db.Tables().Notifications.Insert(ctx, storage.Values{
		"pro_id":         e.ProID,
		"appointment_id": e.AppointmentID,
		"message":        fmt.Sprintf("New appointment: %s booked %s at %s", client, e.Date, e.Hour),
		"is_read":        false,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		s.log.Info("booking notification already stored", slog.Int64("appointment_id", e.AppointmentID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("booking notification stored",
		slog.Int64("pro_id", e.ProID),
		slog.Int64("appointment_id", e.AppointmentID),
		slog.Int64("notification_id", n.ID),
	)
	return nil
}

// HandleMessage разбирает сообщение из очереди и передаёт его HandleBooked.
func (s *NotificationService) HandleMessage(ctx context.Context, body []byte) error {
	e, err := events.Decode(body)
	if err != nil {
		s.log.Error("failed to decode booking event", sl.Err(err))
		return err
	}
	return s.HandleBooked(ctx, e)
}
