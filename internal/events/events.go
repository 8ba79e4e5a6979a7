// Package events описывает доменные события и способы их доставки:
// через RabbitMQ воркеру уведомлений или напрямую обработчику в процессе.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/serpleno/serpleno/internal/rabbitmq"
)

// ErrMalformed: тело сообщения не является корректным событием.
var ErrMalformed = errors.New("malformed event")

// AppointmentBooked публикуется после фиксации бронирования.
type AppointmentBooked struct {
	AppointmentID int64     `json:"appointment_id"`
	SlotID        int64     `json:"slot_id"`
	ClientID      int64     `json:"client_id"`
	ClientName    string    `json:"client_name"`
	ProID         int64     `json:"pro_id"`
	Date          string    `json:"date"`
	Hour          string    `json:"hour"`
	BookedAt      time.Time `json:"booked_at"`
}

// Decode разбирает тело сообщения о бронировании.
func Decode(body []byte) (AppointmentBooked, error) {
	const op = "events.Decode"
	var e AppointmentBooked
	if err := json.Unmarshal(body, &e); err != nil {
		return AppointmentBooked{}, fmt.Errorf("%s: %w: %w", op, ErrMalformed, err)
	}
	if e.AppointmentID == 0 || e.ProID == 0 {
		return AppointmentBooked{}, fmt.Errorf("%s: %w: incomplete event", op, ErrMalformed)
	}
	return e, nil
}

// Publisher доставляет события бронирования.
type Publisher interface {
	AppointmentBooked(ctx context.Context, e AppointmentBooked) error
}

// messagePublisher: подмножество rabbitmq.Publisher.
type messagePublisher interface {
	Publish(routingKey string, message any) error
}

// Rabbit публикует события в обменник RabbitMQ.
type Rabbit struct {
	pub messagePublisher
}

// NewRabbit создаёт Publisher поверх издателя RabbitMQ.
func NewRabbit(pub messagePublisher) *Rabbit {
	return &Rabbit{pub: pub}
}

func (r *Rabbit) AppointmentBooked(_ context.Context, e AppointmentBooked) error {
	const op = "events.Rabbit.AppointmentBooked"
	if err := r.pub.Publish(rabbitmq.RoutingAppointmentBooked, e); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Direct передаёт событие обработчику синхронно, без брокера.
type Direct struct {
	Handle func(ctx context.Context, e AppointmentBooked) error
}

func (d Direct) AppointmentBooked(ctx context.Context, e AppointmentBooked) error {
	if d.Handle == nil {
		return nil
	}
	return d.Handle(ctx, e)
}
