// Package notifier запускает воркер, который превращает события бронирования из
// RabbitMQ в уведомления профессионалов.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/serpleno/serpleno/internal/config"
	"github.com/serpleno/serpleno/internal/events"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/rabbitmq"
	notificationservice "github.com/serpleno/serpleno/internal/services/notification"
	"github.com/serpleno/serpleno/internal/storage"
	"github.com/serpleno/serpleno/internal/storage/postgresql"
)

// ErrNoBroker: воркер запущен без адреса RabbitMQ.
var ErrNoBroker = errors.New("rabbitmq url is required for the notification worker")

// ErrSharedStorage: воркеру нужно общее с API хранилище.
var ErrSharedStorage = errors.New("notification worker requires the postgres storage driver")

// MessageHandler обрабатывает тело сообщения из очереди.
type MessageHandler interface {
	HandleMessage(ctx context.Context, body []byte) error
}

type App struct {
	db      *postgresql.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	handler MessageHandler
	logger  *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.notifier.New"

	if cfg.RabbitMQURL == "" {
		return nil, ErrNoBroker
	}
	if cfg.Driver != config.DriverPostgres {
		return nil, ErrSharedStorage
	}

	db, err := postgresql.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		db:      db,
		conn:    conn,
		ch:      ch,
		handler: notificationservice.NewNotificationService(db, logger),
		logger:  logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	wait, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueAppointmentBooked, Handler(a.handler))
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueAppointmentBooked), sl.Err(err))
		a.close()
		return err
	}

	<-ctx.Done()
	a.logger.Info("notification worker shutting down gracefully")
	wait()
	a.close()
	return nil
}

// Handler оборачивает обработчик: битые сообщения и события об удалённом
// специалисте не возвращаются в очередь.
func Handler(h MessageHandler) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		err := h.HandleMessage(ctx, body)
		if errors.Is(err, events.ErrMalformed) || errors.Is(err, storage.ErrForeignKey) {
			return fmt.Errorf("%w: %w", rabbitmq.ErrDiscard, err)
		}
		return err
	}
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	a.db.Close()
}
