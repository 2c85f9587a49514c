package rabbitmq

const (
	// NotificationsExchange обменник для всех уведомлений.
	NotificationsExchange = "notifications"
	// EmailQueue очередь писем для воркера отправки.
	EmailQueue = "email_queue"
	// EmailRoutingKey ключ маршрутизации писем.
	EmailRoutingKey = "email"
	// DeadLetterExchange принимает сообщения, исчерпавшие попытки обработки.
	DeadLetterExchange = "notifications.dlx"

	prefetchCount = 10
)

// DeadLetterQueue имя очереди, куда попадают отвергнутые сообщения очереди queueName.
func DeadLetterQueue(queueName string) string {
	return queueName + ".dead"
}

// QueueConfig очередь и ключ, которым она привязана к NotificationsExchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые объявляют и издатель, и воркер.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey},
	}
}
