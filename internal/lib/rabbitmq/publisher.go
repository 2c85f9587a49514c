package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// EmailMessageType тип сообщения с письмом в заголовке Type.
const EmailMessageType = "email"

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publish публикует payload как persistent JSON-сообщение типа messageType и возвращает
// присвоенный ему MessageId.
func Publish(ch Channel, exchange, routingKey, messageType string, payload any) (string, error) {
	const op = "rabbitmq.Publish"
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()
	err = ch.Publish(exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Type:         messageType,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
