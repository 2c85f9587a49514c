package account

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

const (
	resetCodeSubject     = "Код для восстановления пароля"
	passwordResetSubject = "Пароль изменён"
)

var resetCodeTemplate = template.Must(template.New("reset_code").Parse(
	`Здравствуйте, {{.Name}}!

Ваш код для восстановления пароля: {{.Code}}
Код действует {{.Minutes}} минут, до {{.ExpiresAt}}.

Если вы не запрашивали восстановление пароля, просто проигнорируйте это письмо.
`))

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(
	`Здравствуйте, {{.Name}}!

Пароль для учётной записи {{.Email}} был изменён {{.ChangedAt}}.

Если это были не вы, немедленно свяжитесь с поддержкой.
`))

type resetCodeData struct {
	Name      string
	Code      string
	Minutes   int
	ExpiresAt string
}

type passwordResetData struct {
	Name      string
	Email     string
	ChangedAt string
}

func renderResetCodeEmail(name, code string, expiresAt time.Time) (string, error) {
	const op = "account.renderResetCodeEmail"
	var buf bytes.Buffer
	err := resetCodeTemplate.Execute(&buf, resetCodeData{
		Name:      name,
		Code:      code,
		Minutes:   int(ResetCodeTTL / time.Minute),
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.String(), nil
}

func renderPasswordResetEmail(name, email string, changedAt time.Time) (string, error) {
	const op = "account.renderPasswordResetEmail"
	var buf bytes.Buffer
	err := passwordResetTemplate.Execute(&buf, passwordResetData{
		Name:      name,
		Email:     email,
		ChangedAt: changedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.String(), nil
}
