// Package models содержит доменные структуры учётных записей фермы:
// пользователя, тарифный план, подписку и письмо для отправки уведомления.
// Структуры используются в бизнес‑логике, хранилищах и транспортах.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID               string     // Уникальный идентификатор пользователя
	Name               string     // Отображаемое имя
	Email              string     // Электронная почта (уникальная, сравнивается точно)
	Document           string     // Номер документа (уникальный)
	PasswordHash       string     // Хэш пароля пользователя
	Phone              string     // Контактный телефон
	Address            string     // Адрес
	CreatedAt          time.Time  // Дата регистрации
	ResetCode          *string    // Код сброса пароля, nil если не выдан
	ResetCodeExpiresAt *time.Time // Срок действия кода сброса, задаётся вместе с ResetCode
}

// HasActiveResetCode сообщает, совпадает ли код пользователя с переданным и не истёк ли он к моменту now.
func (u *User) HasActiveResetCode(code string, now time.Time) bool {
	if u.ResetCode == nil || u.ResetCodeExpiresAt == nil {
		return false
	}
	return *u.ResetCode == code && u.ResetCodeExpiresAt.After(now)
}
