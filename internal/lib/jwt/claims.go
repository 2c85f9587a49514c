package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType различает токены доступа и обновления.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	// ErrMissingSubject токен не содержит идентификатора пользователя.
	ErrMissingSubject = errors.New("missing subject")
	// ErrUnknownType поле type отсутствует или не известно.
	ErrUnknownType = errors.New("unknown token type")
	// ErrMissingRememberMe поле rememberMe отсутствует.
	ErrMissingRememberMe = errors.New("missing rememberMe")
	// ErrMissingPlan access-токен без данных подписки.
	ErrMissingPlan = errors.New("missing plan")
)

// Claims описывает данные, хранящиеся в токене. Для refresh-токена заполнены только
// Type, RememberMe и Subject.
type Claims struct {
	Type                  TokenType  `json:"type"`
	Name                  string     `json:"name,omitempty"`
	PlanName              string     `json:"planName,omitempty"`
	SubscriptionType      string     `json:"subscriptionType,omitempty"`
	SubscriptionStatus    string     `json:"subscriptionStatus,omitempty"`
	SubscriptionCreatedAt *time.Time `json:"subscriptionCreatedAt,omitempty"`
	RememberMe            *bool      `json:"rememberMe"`
	jwt.RegisteredClaims
}

// NewAccessClaims собирает claims для access-токена.
func NewAccessClaims(userUID, name, planName, subType, subStatus string, subCreatedAt time.Time, rememberMe bool) Claims {
	return Claims{
		Type:                  TypeAccess,
		Name:                  name,
		PlanName:              planName,
		SubscriptionType:      subType,
		SubscriptionStatus:    subStatus,
		SubscriptionCreatedAt: &subCreatedAt,
		RememberMe:            &rememberMe,
		RegisteredClaims:      jwt.RegisteredClaims{Subject: userUID},
	}
}

// NewRefreshClaims собирает claims для refresh-токена.
func NewRefreshClaims(userUID string, rememberMe bool) Claims {
	return Claims{
		Type:             TypeRefresh,
		RememberMe:       &rememberMe,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userUID},
	}
}

// UserUID возвращает идентификатор пользователя.
func (c *Claims) UserUID() string {
	return c.Subject
}

// Remember возвращает значение rememberMe. После ParseToken поле гарантированно задано.
func (c *Claims) Remember() bool {
	return c.RememberMe != nil && *c.RememberMe
}

// Validate вызывается парсером jwt после проверки стандартных полей.
func (c *Claims) Validate() error {
	if c.Subject == "" {
		return ErrMissingSubject
	}
	if c.Type != TypeAccess && c.Type != TypeRefresh {
		return ErrUnknownType
	}
	if c.RememberMe == nil {
		return ErrMissingRememberMe
	}
	if c.Type == TypeAccess && c.PlanName == "" {
		return ErrMissingPlan
	}
	return nil
}

// GenerateToken подписывает claims секретным ключом. IssuedAt, ExpiresAt и ID проставляются здесь.
func (j *MakerImpl) GenerateToken(claims Claims, ttl time.Duration) (string, time.Time, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()
	if j.issuer != "" {
		claims.Issuer = j.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// ParseToken парсит токен, проверяет алгоритм, подпись, срок действия и форму claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
