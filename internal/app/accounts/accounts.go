// Package accounts собирает сервис учётных записей по конфигу: хранилище,
// кэш подписок и транспорт писем. Используется HTTP API в режиме без auth-service
// и самим auth-service.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/farm-backend/internal/cache"
	"github.com/magabrotheeeer/farm-backend/internal/config"
	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/lib/password"
	"github.com/magabrotheeeer/farm-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/farm-backend/internal/lib/resetcode"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/farm-backend/internal/migrations"
	"github.com/magabrotheeeer/farm-backend/internal/services/account"
	"github.com/magabrotheeeer/farm-backend/internal/services/notification"
	"github.com/magabrotheeeer/farm-backend/internal/services/scheduler"
	"github.com/magabrotheeeer/farm-backend/internal/storage/memory"
	"github.com/magabrotheeeer/farm-backend/internal/storage/postgres"
)

// Store хранилище пользователей, тарифов и подписок.
type Store interface {
	account.UserRepository
	account.SubscriptionRepository
	scheduler.ResetCodeRepository
}

// Resources сервис и всё, что нужно закрыть при остановке.
type Resources struct {
	Service *account.Service
	// Sweeper задан только для хранилища в памяти: PostgreSQL чистит отдельный планировщик.
	Sweeper *scheduler.Sweeper
	closers []func() error
	log     *slog.Logger
}

// Build создаёт сервис учётных записей. recorder может быть nil.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger, recorder account.Recorder) (*Resources, error) {
	const op = "accounts.Build"
	res := &Resources{log: log}

	store, err := res.openStore(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	opts := []account.Option{}
	if recorder != nil {
		opts = append(opts, account.WithRecorder(recorder))
	}
	if cfg.RedisAddress != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res.closers = append(res.closers, c.Close)
		opts = append(opts, account.WithCache(c))
		log.Info("subscription cache enabled", slog.String("address", cfg.RedisAddress))
	}

	notifier, err := res.newNotifier(cfg)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res.Service = account.New(
		store,
		store,
		password.NewHasher(cfg.BcryptCost),
		jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.JWTIssuer),
		resetcode.New(),
		notifier,
		log,
		opts...,
	)
	return res, nil
}

func (r *Resources) openStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if !cfg.UsePostgres() {
		r.log.Warn("storage_connection_string is empty, using in-memory storage")
		store := memory.New(memory.DefaultPlans()...)
		if cfg.ResetCodeSweepInterval > 0 {
			r.Sweeper = scheduler.NewSweeper(store, cfg.ResetCodeSweepInterval, r.log)
		}
		return store, nil
	}

	db, err := postgres.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, db.Close)
	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		return nil, err
	}
	r.log.Info("storage schema is up to date", slog.Uint64("version", uint64(version)))
	return db, nil
}

// newNotifier выбирает транспорт писем: очередь RabbitMQ, прямой SMTP или запись в лог.
func (r *Resources) newNotifier(cfg *config.Config) (account.Notifier, error) {
	switch {
	case cfg.RabbitMQURL != "":
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, conn.Close)
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, ch.Close)
		r.log.Info("emails are published to rabbitmq", slog.String("queue", rabbitmq.EmailQueue))
		return notification.NewPublisher(ch, r.log), nil
	case cfg.SMTPHost != "":
		r.log.Info("emails are sent over smtp", slog.String("host", cfg.SMTPHost))
		return notification.NewSMTPSender(smtp.NewTransport(cfg.SMTP, r.log), r.log), nil
	default:
		r.log.Warn("no email transport configured, emails are written to the log")
		return notification.NewLogSender(r.log), nil
	}
}

// StartSweeper запускает очистку кодов сброса в фоне до отмены ctx, если она нужна.
func (r *Resources) StartSweeper(ctx context.Context) {
	if r.Sweeper == nil {
		return
	}
	go r.Sweeper.Run(ctx)
}

// Close освобождает ресурсы в обратном порядке.
func (r *Resources) Close() {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	if err := errors.Join(errs...); err != nil {
		r.log.Error("failed to release account resources", sl.Err(err))
	}
}
