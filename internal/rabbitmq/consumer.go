package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/serpleno/serpleno/internal/lib/sl"
)

// maxInFlight ограничивает число одновременно обрабатываемых сообщений.
const maxInFlight = 10

// ErrDiscard оборачивается обработчиком, когда сообщение не имеет смысла
// обрабатывать повторно. Такое сообщение отклоняется без возврата в очередь.
var ErrDiscard = errors.New("discard message")

// ConsumerMessage запускает потребителя очереди. Успешно обработанные
// сообщения подтверждаются. При ошибке обработчика сообщение возвращается в
// очередь один раз; ошибка с ErrDiscard или повторная неудача его отбрасывают.
// Возвращённая функция ждёт завершения обработчиков после отмены ctx.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func(context.Context, []byte) error) (wait func(), err error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxInFlight)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer func() {
						<-sem
						wg.Done()
					}()
					if err := handler(ctx, d.Body); err != nil {
						requeue := shouldRequeue(err, d.Redelivered)
						log.Error("handler failed",
							slog.Bool("requeue", requeue),
							slog.Bool("redelivered", d.Redelivered),
							sl.Err(err),
						)
						if nackErr := d.Nack(false, requeue); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		<-done
		wg.Wait()
	}, nil
}

// shouldRequeue решает судьбу сообщения, которое обработчик не смог принять.
func shouldRequeue(err error, redelivered bool) bool {
	return !redelivered && !errors.Is(err, ErrDiscard)
}
