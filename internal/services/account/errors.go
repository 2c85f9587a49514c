package account

import (
	"errors"
	"fmt"
)

// Kind класс ошибки, видимый вызывающей стороне.
type Kind int

const (
	// KindInternal ошибка конфигурации или инфраструктуры, пользователь исправить её не может.
	KindInternal Kind = iota
	// KindAlreadyExists конфликт при регистрации.
	KindAlreadyExists
	// KindUnauthorized неверные учётные данные или токен.
	KindUnauthorized
	// KindBadRequest неверный или истёкший код сброса, недопустимый пароль.
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already_exists"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Сообщения, которые видит клиент.
const (
	MsgEmailExists         = "user with this email already exists"
	MsgDocumentExists      = "user with this document already exists"
	MsgInvalidCredentials  = "invalid email or password"
	MsgInvalidRefreshToken = "invalid or expired refresh token"
	MsgInvalidToken        = "invalid or expired token"
	MsgInvalidTokenType    = "invalid token type"
	MsgInvalidResetCode    = "invalid or expired reset code"
	MsgPasswordTooShort    = "password must be at least 6 characters"
	MsgPasswordTooLong     = "password must be at most 72 bytes"
	MsgInternal            = "internal error"
)

// Error ошибка сервиса учётных записей. Message безопасно отдавать клиенту,
// Err хранит исходную причину только для логов.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError создаёт ошибку сервиса. Используется транспортами, восстанавливающими ошибку
// из ответа удалённого сервиса.
func NewError(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

// KindOf возвращает класс ошибки. Ошибки, не созданные сервисом, считаются внутренними.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf возвращает сообщение для клиента без внутренних подробностей.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgInternal
}

// FieldOf возвращает поле, к которому относится ошибка, или пустую строку.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func alreadyExists(field, msg string, cause error) *Error {
	return &Error{Kind: KindAlreadyExists, Field: field, Message: msg, Err: cause}
}

func unauthorized(msg string, cause error) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: cause}
}

func badRequest(field, msg string, cause error) *Error {
	return &Error{Kind: KindBadRequest, Field: field, Message: msg, Err: cause}
}

func internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: cause}
}
