package account

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/farm-backend/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) RegisterUser(ctx context.Context, user models.User, sub models.Subscription, planName string) (*models.Plan, error) {
	args := m.Called(ctx, user, sub, planName)
	p, _ := args.Get(0).(*models.Plan)
	return p, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByResetCode(ctx context.Context, code string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, code, now)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserRepositoryMock) SetResetCode(ctx context.Context, userUID, code string, expiresAt time.Time) error {
	args := m.Called(ctx, userUID, code, expiresAt)
	return args.Error(0)
}

func (m *UserRepositoryMock) ResetPassword(ctx context.Context, userUID, code, passwordHash string, now time.Time) error {
	args := m.Called(ctx, userUID, code, passwordHash, now)
	return args.Error(0)
}

type SubscriptionRepositoryMock struct {
	mock.Mock
}

func (m *SubscriptionRepositoryMock) GetSubscriptionView(ctx context.Context, userUID string) (*models.SubscriptionView, error) {
	args := m.Called(ctx, userUID)
	v, _ := args.Get(0).(*models.SubscriptionView)
	return v, args.Error(1)
}

type HasherMock struct {
	mock.Mock
}

func (m *HasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *HasherMock) Verify(plain, hash string) bool {
	args := m.Called(plain, hash)
	return args.Bool(0)
}

type CodeGeneratorMock struct {
	mock.Mock
}

func (m *CodeGeneratorMock) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type RecorderMock struct {
	mock.Mock
}

func (m *RecorderMock) IncOperation(operation, result string) {
	m.Called(operation, result)
}

// sentMail письмо, перехваченное outbox.
type sentMail struct {
	To      string
	Subject string
	Body    string
}

// outbox запоминает отправленные письма и может имитировать отказ доставки.
type outbox struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (o *outbox) Send(_ context.Context, to, subject, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.sent = append(o.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (o *outbox) last() (sentMail, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return sentMail{}, false
	}
	return o.sent[len(o.sent)-1], true
}

// fakeClock управляемые часы для проверок срока действия.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
