// Package memory реализует хранилище пользователей, тарифов и подписок в памяти процесса.
// Данные теряются при перезапуске; используется по умолчанию и в тестах.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/farm-backend/internal/models"
	"github.com/magabrotheeeer/farm-backend/internal/storage"
)

// Storage хранит записи в map под одним RWMutex. Проверки уникальности и вставка
// выполняются под одной блокировкой.
type Storage struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	byEmail       map[string]string
	byDocument    map[string]string
	plans         map[string]*models.Plan
	subscriptions map[string]*models.Subscription
	subByUser     map[string]string
}

// DefaultPlans тарифы, которыми наполняется хранилище при создании.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{ID: uuid.NewString(), Name: "Basic", Price: 49.9},
		{ID: uuid.NewString(), Name: "Pro", Price: 99.9},
		{ID: uuid.NewString(), Name: models.EnterprisePlan, Price: 199.9},
	}
}

// New создаёт хранилище с переданными тарифами.
func New(plans ...models.Plan) *Storage {
	s := &Storage{
		users:         make(map[string]*models.User),
		byEmail:       make(map[string]string),
		byDocument:    make(map[string]string),
		plans:         make(map[string]*models.Plan),
		subscriptions: make(map[string]*models.Subscription),
		subByUser:     make(map[string]string),
	}
	for _, p := range plans {
		s.plans[p.ID] = &p
	}
	return s
}

// RegisterUser сохраняет пользователя и его подписку на тариф planName. Email проверяется
// раньше документа, тариф ищется после обеих проверок.
func (s *Storage) RegisterUser(ctx context.Context, user models.User, sub models.Subscription, planName string) (*models.Plan, error) {
	const op = "storage.memory.RegisterUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
	}
	if _, ok := s.byDocument[user.Document]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrDocumentExists)
	}
	plan := s.planByName(planName)
	if plan == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanNotFound)
	}

	u := cloneUser(&user)
	s.users[u.UUID] = u
	s.byEmail[u.Email] = u.UUID
	s.byDocument[u.Document] = u.UUID

	sub.UserUID = u.UUID
	sub.PlanID = plan.ID
	s.subscriptions[sub.ID] = &sub
	s.subByUser[u.UUID] = sub.ID

	found := *plan
	return &found, nil
}

// GetUserByEmail возвращает пользователя по точному совпадению email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.memory.GetUserByEmail"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return cloneUser(s.users[uid]), nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.memory.GetUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userUID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return cloneUser(u), nil
}

// GetUserByResetCode возвращает пользователя с данным кодом, действующим на момент now.
func (s *Storage) GetUserByResetCode(ctx context.Context, code string, now time.Time) (*models.User, error) {
	const op = "storage.memory.GetUserByResetCode"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.HasActiveResetCode(code, now) {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrResetCodeNotFound)
}

// SetResetCode записывает код сброса, заменяя предыдущий. Если такой же код уже
// закреплён за другим пользователем, возвращается storage.ErrResetCodeTaken.
func (s *Storage) SetResetCode(ctx context.Context, userUID, code string, expiresAt time.Time) error {
	const op = "storage.memory.SetResetCode"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userUID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	for uid, other := range s.users {
		if uid != userUID && other.ResetCode != nil && *other.ResetCode == code {
			return fmt.Errorf("%s: %w", op, storage.ErrResetCodeTaken)
		}
	}
	u.ResetCode = &code
	u.ResetCodeExpiresAt = &expiresAt
	return nil
}

// ResetPassword заменяет хэш пароля и очищает код сброса, только если у пользователя
// по-прежнему этот код и он действует на момент now.
func (s *Storage) ResetPassword(ctx context.Context, userUID, code, passwordHash string, now time.Time) error {
	const op = "storage.memory.ResetPassword"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userUID]
	if !ok || !u.HasActiveResetCode(code, now) {
		return fmt.Errorf("%s: %w", op, storage.ErrResetCodeNotFound)
	}
	u.PasswordHash = passwordHash
	u.ResetCode = nil
	u.ResetCodeExpiresAt = nil
	return nil
}

// ClearExpiredResetCodes снимает коды сброса, истёкшие к моменту now, и возвращает число затронутых пользователей.
func (s *Storage) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.memory.ClearExpiredResetCodes"
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if u.ResetCode == nil || u.ResetCodeExpiresAt == nil || u.ResetCodeExpiresAt.After(now) {
			continue
		}
		u.ResetCode = nil
		u.ResetCodeExpiresAt = nil
		n++
	}
	return n, nil
}

// GetPlanByName возвращает тариф по имени.
func (s *Storage) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	const op = "storage.memory.GetPlanByName"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.planByName(name); p != nil {
		plan := *p
		return &plan, nil
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanNotFound)
}

// GetSubscriptionView возвращает подписку пользователя вместе с именем тарифа.
func (s *Storage) GetSubscriptionView(ctx context.Context, userUID string) (*models.SubscriptionView, error) {
	const op = "storage.memory.GetSubscriptionView"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	subID, ok := s.subByUser[userUID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrSubscriptionNotFound)
	}
	sub := s.subscriptions[subID]
	plan, ok := s.plans[sub.PlanID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanNotFound)
	}
	return &models.SubscriptionView{
		PlanName:  plan.Name,
		Type:      sub.Type,
		Status:    sub.Status,
		CreatedAt: sub.CreatedAt,
	}, nil
}

// planByName ищет тариф по имени. Вызывается под s.mu.
func (s *Storage) planByName(name string) *models.Plan {
	for _, p := range s.plans {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.ResetCode != nil {
		code := *u.ResetCode
		c.ResetCode = &code
	}
	if u.ResetCodeExpiresAt != nil {
		exp := *u.ResetCodeExpiresAt
		c.ResetCodeExpiresAt = &exp
	}
	return &c
}
