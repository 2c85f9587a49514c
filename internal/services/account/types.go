package account

import (
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/models"
)

// RegisterInput данные для регистрации пользователя.
type RegisterInput struct {
	Name     string
	Email    string
	Document string
	Password string
	Phone    string
	Address  string
}

// RegisterResult результат регистрации.
type RegisterResult struct {
	UserUID            string                    `json:"userId"`
	SubscriptionID     string                    `json:"subscriptionId"`
	Name               string                    `json:"name"`
	Email              string                    `json:"email"`
	PlanName           string                    `json:"planName"`
	SubscriptionType   models.SubscriptionType   `json:"subscriptionType"`
	SubscriptionValue  float64                   `json:"subscriptionValue"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscriptionStatus"`
	CreatedAt          time.Time                 `json:"createdAt"`
}

// LoginInput учётные данные для входа.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// TokenResult пара токенов и моменты их истечения в формате RFC 3339.
type TokenResult struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresAt        string `json:"expiresAt"`
	RefreshExpiresAt string `json:"refreshExpiresAt"`
	RememberMe       bool   `json:"rememberMe"`
}

// ForgotResult ответ на запрос кода сброса. Одинаков для известного и неизвестного email.
type ForgotResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// ResetResult результат смены пароля по коду.
type ResetResult struct {
	Message string `json:"message"`
	UserUID string `json:"userId"`
	Email   string `json:"email"`
}
