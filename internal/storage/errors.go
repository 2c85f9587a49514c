// Package storage описывает общие ошибки хранилищ учётных записей.
// Реализации лежат в подпакетах memory (в памяти процесса) и postgres.
package storage

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailExists          = errors.New("email already exists")
	ErrDocumentExists       = errors.New("document already exists")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrResetCodeNotFound нет пользователя с таким действующим кодом сброса.
	ErrResetCodeNotFound = errors.New("reset code not found")
	// ErrResetCodeTaken код уже выдан другому пользователю.
	ErrResetCodeTaken = errors.New("reset code already taken")
)
