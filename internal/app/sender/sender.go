// Package sender собирает воркер, который забирает письма из очереди и отправляет их через SMTP.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/farm-backend/internal/config"
	"github.com/magabrotheeeer/farm-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/farm-backend/internal/services/notification"
)

const sendTimeout = 30 * time.Second

// ErrBrokerNotConfigured воркеру не задан адрес RabbitMQ.
var ErrBrokerNotConfigured = errors.New("rabbitmq url is not configured")

// App воркер отправки писем.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	worker *notification.Worker
	logger *slog.Logger
}

// New подключается к брокеру и выбирает транспорт отправки. Без SMTP письма пишутся в лог.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQURL == "" {
		return nil, ErrBrokerNotConfigured
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	var delivery notification.Sender
	if cfg.SMTPHost != "" {
		delivery = notification.NewSMTPSender(smtp.NewTransport(cfg.SMTP, logger), logger)
	} else {
		logger.Warn("smtp host is empty, emails are written to the log")
		delivery = notification.NewLogSender(logger)
	}

	return &App{
		conn:   conn,
		ch:     ch,
		worker: notification.NewWorker(delivery, logger, sendTimeout),
		logger: logger,
	}, nil
}

// Run обрабатывает очередь писем до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.EmailQueue, a.logger, a.worker.HandleEmail)
	if err != nil {
		a.logger.Error("failed to start email consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}
