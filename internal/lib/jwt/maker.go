// Package jwt реализует выпуск и проверку подписанных JWT токенов доступа и обновления.
//
// Maker определяет интерфейс для создания и проверки токенов.
// MakerImpl реализация на HS256 с секретным ключом.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken подписывает claims со сроком жизни ttl и возвращает токен и момент его истечения.
	GenerateToken(claims Claims, ttl time.Duration) (string, time.Time, error)
	// ParseToken проверяет подпись, срок и форму claims и возвращает их.
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа.
type MakerImpl struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl. Пустой issuer не проверяется и не записывается.
func NewJWTMaker(secretKey, issuer string) *MakerImpl {
	return &MakerImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		now:       time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (j *MakerImpl) WithClock(now func() time.Time) *MakerImpl {
	j.now = now
	return j
}
