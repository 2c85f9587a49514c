package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/lib/resetcode"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/models"
	"github.com/magabrotheeeer/farm-backend/internal/storage"
)

const (
	MsgResetCodeSent = "if the email is registered, a reset code has been sent"
	MsgPasswordReset = "password has been reset successfully"
)

// ForgotPassword выдаёт код сброса и отправляет его письмом. Ответ не зависит от того,
// зарегистрирован ли email, поэтому ошибок наружу не возвращает.
func (s *Service) ForgotPassword(ctx context.Context, email string) *ForgotResult {
	const op = "account.ForgotPassword"
	log := s.log.With(sl.Op(op))
	res := &ForgotResult{Success: true, Message: MsgResetCodeSent, Email: email}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("reset requested for unknown email")
			s.record("forgot_password", nil)
			return res
		}
		log.Error("failed to load user", sl.Err(err))
		s.record("forgot_password", internal(err))
		return res
	}

	code, expiresAt, err := s.issueResetCode(ctx, user.UUID)
	if err != nil {
		log.Error("failed to issue reset code", slog.String("user_uid", user.UUID), sl.Err(err))
		s.record("forgot_password", internal(err))
		return res
	}
	s.record("forgot_password", nil)

	body, err := renderResetCodeEmail(user.Name, code, expiresAt)
	if err != nil {
		log.Error("failed to render reset email", sl.Err(err))
		return res
	}
	s.notify(ctx, log, user.Email, resetCodeSubject, body)

	log.Info("reset code issued", slog.String("user_uid", user.UUID))
	return res
}

// issueResetCode генерирует код и сохраняет его. Если такой код уже выдан другому
// пользователю, генерирует новый.
func (s *Service) issueResetCode(ctx context.Context, userUID string) (string, time.Time, error) {
	const op = "account.issueResetCode"
	var lastErr error
	for attempt := 0; attempt < resetCodeIssueAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
		}
		expiresAt := s.now().UTC().Add(ResetCodeTTL)
		err = s.users.SetResetCode(ctx, userUID, code, expiresAt)
		if err == nil {
			return code, expiresAt, nil
		}
		if !errors.Is(err, storage.ErrResetCodeTaken) {
			return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err
	}
	return "", time.Time{}, fmt.Errorf("%s: %w", op, lastErr)
}

// ValidateResetCode сообщает, действует ли код. Любая ошибка даёт false.
func (s *Service) ValidateResetCode(ctx context.Context, code string) bool {
	const op = "account.ValidateResetCode"
	if !resetcode.IsWellFormed(code) {
		return false
	}
	_, err := s.users.GetUserByResetCode(ctx, code, s.now())
	if err != nil {
		if !errors.Is(err, storage.ErrResetCodeNotFound) {
			s.log.Error("failed to look up reset code", sl.Op(op), sl.Err(err))
		}
		return false
	}
	return true
}

// ResetPassword меняет пароль по действующему коду и гасит код.
func (s *Service) ResetPassword(ctx context.Context, code, newPassword string) (res *ResetResult, err error) {
	const op = "account.ResetPassword"
	log := s.log.With(sl.Op(op))
	defer func() { s.record("reset_password", err) }()

	if err = checkPassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.lookupResetCode(ctx, code)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return nil, internal(err)
	}

	now := s.now()
	if err = s.users.ResetPassword(ctx, user.UUID, code, hash, now); err != nil {
		if errors.Is(err, storage.ErrResetCodeNotFound) {
			log.Info("reset code consumed concurrently", slog.String("user_uid", user.UUID))
			return nil, badRequest("code", MsgInvalidResetCode, err)
		}
		log.Error("failed to reset password", sl.Err(err))
		return nil, internal(err)
	}

	body, rerr := renderPasswordResetEmail(user.Name, user.Email, now)
	if rerr != nil {
		log.Error("failed to render confirmation email", sl.Err(rerr))
	} else {
		s.notify(ctx, log, user.Email, passwordResetSubject, body)
	}

	log.Info("password reset", slog.String("user_uid", user.UUID))
	return &ResetResult{
		Message: MsgPasswordReset,
		UserUID: user.UUID,
		Email:   user.Email,
	}, nil
}

func (s *Service) lookupResetCode(ctx context.Context, code string) (*models.User, error) {
	if !resetcode.IsWellFormed(code) {
		return nil, badRequest("code", MsgInvalidResetCode, nil)
	}
	user, err := s.users.GetUserByResetCode(ctx, code, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrResetCodeNotFound) {
			return nil, badRequest("code", MsgInvalidResetCode, err)
		}
		s.log.Error("failed to look up reset code", sl.Op("account.lookupResetCode"), sl.Err(err))
		return nil, internal(err)
	}
	return user, nil
}

// notify отправляет письмо, не завися от отмены запроса. Ошибка только логируется.
func (s *Service) notify(ctx context.Context, log *slog.Logger, to, subject, body string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(ctx, to, subject, body); err != nil {
		log.Warn("failed to send email", slog.String("subject", subject), sl.Err(err))
	}
}
