// Package account содержит бизнес-логику учётных записей: регистрацию, вход с выдачей
// пары токенов, ротацию refresh-токена и восстановление пароля по коду.
//
// Service единственная точка входа; хранилище, хэширование, токены, генерация кодов
// и отправка писем передаются ему через интерфейсы.
package account

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/models"
)

const (
	AccessTTL              = 24 * time.Hour
	AccessTTLRememberMe    = 30 * 24 * time.Hour
	RefreshTTL             = 7 * 24 * time.Hour
	RefreshTTLRememberMe   = 60 * 24 * time.Hour
	ResetCodeTTL           = 15 * time.Minute
	MinPasswordLength      = 6
	MaxPasswordBytes       = 72
	subscriptionCacheTTL   = 10 * time.Minute
	resetCodeIssueAttempts = 5
	notifyTimeout          = 10 * time.Second
)

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	// RegisterUser атомарно проверяет уникальность email, затем документа, находит тариф
	// planName и сохраняет пользователя вместе с подпиской на него.
	RegisterUser(ctx context.Context, user models.User, sub models.Subscription, planName string) (*models.Plan, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByResetCode(ctx context.Context, code string, now time.Time) (*models.User, error)
	SetResetCode(ctx context.Context, userUID, code string, expiresAt time.Time) error
	// ResetPassword меняет хэш и очищает код, только если код всё ещё действует.
	ResetPassword(ctx context.Context, userUID, code, passwordHash string, now time.Time) error
}

// SubscriptionRepository описывает чтение подписок.
type SubscriptionRepository interface {
	GetSubscriptionView(ctx context.Context, userUID string) (*models.SubscriptionView, error)
}

// Hasher хэширует и проверяет пароли.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// CodeGenerator выдаёт коды сброса пароля.
type CodeGenerator interface {
	Generate() (string, error)
}

// Notifier отправляет письмо. Ошибка отправки не прерывает операцию.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Cache описывает методы для кэширования данных подписки.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Recorder считает вызовы операций.
type Recorder interface {
	IncOperation(operation, result string)
}

// Service реализует операции над учётными записями.
type Service struct {
	users    UserRepository
	subs     SubscriptionRepository
	hasher   Hasher
	tokens   jwt.Maker
	codes    CodeGenerator
	notifier Notifier
	cache    Cache
	recorder Recorder
	log      *slog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option настраивает Service.
type Option func(*Service)

// WithCache включает кэш подписок.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRecorder включает подсчёт операций.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создаёт новый экземпляр Service.
func New(
	users UserRepository,
	subs SubscriptionRepository,
	hasher Hasher,
	tokens jwt.Maker,
	codes CodeGenerator,
	notifier Notifier,
	log *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		users:    users,
		subs:     subs,
		hasher:   hasher,
		tokens:   tokens,
		codes:    codes,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) record(operation string, err error) {
	if s.recorder == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = KindOf(err).String()
	}
	s.recorder.IncOperation(operation, result)
}
