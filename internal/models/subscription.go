package models

import "time"

// SubscriptionType периодичность оплаты подписки.
type SubscriptionType string

// SubscriptionStatus состояние подписки.
type SubscriptionStatus string

const (
	SubscriptionTrial   SubscriptionType = "trial"
	SubscriptionMonthly SubscriptionType = "monthly"
	SubscriptionYearly  SubscriptionType = "yearly"
)

const (
	StatusActive   SubscriptionStatus = "active"
	StatusInactive SubscriptionStatus = "inactive"
	StatusExpired  SubscriptionStatus = "expired"
)

// EnterprisePlan имя тарифа, на который оформляется пробная подписка при регистрации.
const EnterprisePlan = "Enterprise"

// Plan представляет тарифный план.
type Plan struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Subscription связывает пользователя с тарифным планом.
type Subscription struct {
	ID        string             `json:"id"`
	UserUID   string             `json:"user_uid"`
	PlanID    string             `json:"plan_id"`
	Type      SubscriptionType   `json:"type"`
	Value     float64            `json:"value"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// SubscriptionView подписка вместе с именем тарифа. Именно эти данные попадают в access-токен,
// поэтому она же хранится в кэше.
type SubscriptionView struct {
	PlanName  string             `json:"plan_name"`
	Type      SubscriptionType   `json:"type"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}
