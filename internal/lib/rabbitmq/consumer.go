package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
)

const (
	// RetryCountHeader заголовок с числом уже сделанных повторов.
	RetryCountHeader = "x-retry-count"
	// MaxDeliveryAttempts сколько раз обработчик получает сообщение, прежде чем
	// оно уйдёт в DeadLetterExchange.
	MaxDeliveryAttempts = 3
)

// retryBackoff пауза перед первым повтором, дальше растёт линейно.
var retryBackoff = time.Second

// ConsumerMessage запускает потребителя очереди queueName. Сообщения обрабатываются
// параллельно, не больше prefetchCount одновременно. Успех подтверждается ack.
// После ошибки обработчика сообщение публикуется заново с увеличенным RetryCountHeader,
// а на попытке MaxDeliveryAttempts отвергается без возврата в очередь.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler func([]byte) error) error {
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
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, prefetchCount)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					log := log.With(slog.String("queue", queueName), slog.String("message_id", delivery.MessageId))
					if err := handler(delivery.Body); err != nil {
						retry(ctx, ch, delivery, log, err)
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// retry откладывает повтор сообщения или отправляет его в очередь недоставленных.
func retry(ctx context.Context, ch *amqp.Channel, d amqp.Delivery, log *slog.Logger, cause error) {
	attempt := retryCount(d.Headers) + 1
	if attempt >= MaxDeliveryAttempts {
		log.Error("message handling failed, dead-lettering", slog.Int("attempt", attempt), sl.Err(cause))
		if err := d.Nack(false, false); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}

	log.Warn("message handling failed, retrying", slog.Int("attempt", attempt), sl.Err(cause))
	select {
	case <-time.After(retryBackoff * time.Duration(attempt)):
	case <-ctx.Done():
		if err := d.Nack(false, true); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[RetryCountHeader] = int32(attempt)

	err := ch.Publish(d.Exchange, d.RoutingKey, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: d.DeliveryMode,
		MessageId:    d.MessageId,
		Type:         d.Type,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	})
	if err != nil {
		log.Error("failed to republish message", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if err = d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}

// retryCount читает RetryCountHeader. Отсутствующий или нечисловой заголовок считается нулём.
func retryCount(headers amqp.Table) int {
	switch v := headers[RetryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	default:
		return 0
	}
}
