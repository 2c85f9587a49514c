// Package rabbitmq содержит подключение к брокеру, объявление обменника и очередей,
// публикацию JSON-сообщений и конкурентного потребителя с ack/nack.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, делая до retries попыток с паузой delay.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	if retries < 1 {
		retries = 1
	}
	var conn *amqp.Connection
	var err error

	for attempt := range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if attempt < retries-1 {
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет direct-обменник NotificationsExchange
// и привязывает к нему очереди. У каждой очереди есть пара QueueName.dead на
// обменнике DeadLetterExchange с тем же ключом маршрутизации.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	for _, exchange := range []string{NotificationsExchange, DeadLetterExchange} {
		err = ch.ExchangeDeclare(
			exchange,
			"direct",
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare exchange %s: %w", op, exchange, err)
		}
	}

	for _, q := range queues {
		if err = declareAndBind(ch, DeadLetterQueue(q.QueueName), q.RoutingKey, DeadLetterExchange, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		args := amqp.Table{"x-dead-letter-exchange": DeadLetterExchange}
		if err = declareAndBind(ch, q.QueueName, q.RoutingKey, NotificationsExchange, args); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return ch, nil
}

func declareAndBind(ch *amqp.Channel, queue, routingKey, exchange string, args amqp.Table) error {
	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		args,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	err = ch.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s with routing key %s: %w", queue, routingKey, err)
	}
	return nil
}
