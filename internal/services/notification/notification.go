// Package notification доставляет письма сервиса учётных записей: публикует их в очередь,
// отправляет напрямую через SMTP или только пишет в лог.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/models"
)

// Sender отправляет одно письмо.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher кладёт письма в обменник notifications с ключом email.
type Publisher struct {
	ch  rabbitmq.Channel
	log *slog.Logger
}

// NewPublisher создаёт Publisher поверх настроенного канала.
func NewPublisher(ch rabbitmq.Channel, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

// Send публикует письмо. Доставкой занимается воркер отправки.
func (p *Publisher) Send(ctx context.Context, to, subject, body string) error {
	const op = "notification.Publisher.Send"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := models.EmailMessage{To: to, Subject: subject, Body: body}
	id, err := rabbitmq.Publish(p.ch, rabbitmq.NotificationsExchange, rabbitmq.EmailRoutingKey, rabbitmq.EmailMessageType, msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.log.Debug("email queued", slog.String("message_id", id), slog.String("to", to), slog.String("subject", subject))
	return nil
}

// LogSender только пишет письмо в лог. Используется, когда ни SMTP, ни брокер не настроены.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender создаёт LogSender.
func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send логирует адресата и тему, текст письма только на уровне debug.
func (l *LogSender) Send(_ context.Context, to, subject, body string) error {
	l.log.Info("email not delivered: no transport configured",
		slog.String("to", to), slog.String("subject", subject))
	l.log.Debug("email body", slog.String("to", to), slog.String("body", body))
	return nil
}

// Worker обрабатывает сообщения очереди email_queue.
type Worker struct {
	sender  Sender
	log     *slog.Logger
	timeout time.Duration
}

// NewWorker создаёт обработчик, отправляющий письма через sender. timeout ограничивает одну отправку.
func NewWorker(sender Sender, log *slog.Logger, timeout time.Duration) *Worker {
	return &Worker{sender: sender, log: log, timeout: timeout}
}

// HandleEmail разбирает сообщение из очереди и отправляет письмо. Битое сообщение
// отбрасывается, ошибка отправки возвращается, чтобы сообщение вернулось в очередь.
func (w *Worker) HandleEmail(body []byte) error {
	const op = "notification.Worker.HandleEmail"
	var msg models.EmailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		w.log.Error("dropping malformed email message", sl.Op(op), sl.Err(err))
		return nil
	}
	if msg.To == "" {
		w.log.Error("dropping email message without recipient", sl.Op(op))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.sender.Send(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
