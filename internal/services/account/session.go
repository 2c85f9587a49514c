package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/models"
	"github.com/magabrotheeeer/farm-backend/internal/storage"
)

// Login проверяет email и пароль и выдаёт пару токенов. Отсутствующий пользователь и
// неверный пароль дают одну и ту же ошибку.
func (s *Service) Login(ctx context.Context, in LoginInput) (res *TokenResult, err error) {
	const op = "account.Login"
	log := s.log.With(sl.Op(op))
	defer func() { s.record("login", err) }()

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.equalizeTiming(in.Password)
			log.Info("login failed", slog.String("reason", "unknown email"))
			return nil, unauthorized(MsgInvalidCredentials, err)
		}
		log.Error("failed to load user", sl.Err(err))
		return nil, internal(err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		log.Info("login failed", slog.String("reason", "wrong password"), slog.String("user_uid", user.UUID))
		return nil, unauthorized(MsgInvalidCredentials, nil)
	}

	res, err = s.issueTokens(ctx, user, in.RememberMe)
	if err != nil {
		return nil, err
	}
	log.Info("user logged in", slog.String("user_uid", user.UUID), slog.Bool("remember_me", in.RememberMe))
	return res, nil
}

// RefreshToken проверяет refresh-токен и выдаёт новую пару токенов. rememberMe берётся
// из самого токена. Старый токен не отзывается.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (res *TokenResult, err error) {
	const op = "account.RefreshToken"
	log := s.log.With(sl.Op(op))
	defer func() { s.record("refresh_token", err) }()

	claims, err := s.tokens.ParseToken(refreshToken)
	if err != nil {
		log.Info("refresh token rejected", sl.Err(err))
		return nil, unauthorized(MsgInvalidRefreshToken, err)
	}
	if claims.Type != jwt.TypeRefresh {
		log.Info("refresh token rejected", slog.String("type", string(claims.Type)))
		return nil, unauthorized(MsgInvalidTokenType, nil)
	}

	user, err := s.users.GetUser(ctx, claims.UserUID())
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("refresh token subject not found", slog.String("user_uid", claims.UserUID()))
			return nil, unauthorized(MsgInvalidRefreshToken, err)
		}
		log.Error("failed to load user", sl.Err(err))
		return nil, internal(err)
	}

	return s.issueTokens(ctx, user, claims.Remember())
}

// ValidateToken проверяет access-токен и возвращает его claims.
func (s *Service) ValidateToken(_ context.Context, accessToken string) (*jwt.Claims, error) {
	claims, err := s.tokens.ParseToken(accessToken)
	if err != nil {
		return nil, unauthorized(MsgInvalidToken, err)
	}
	if claims.Type != jwt.TypeAccess {
		return nil, unauthorized(MsgInvalidTokenType, nil)
	}
	return claims, nil
}

func tokenLifetimes(rememberMe bool) (access, refresh time.Duration) {
	if rememberMe {
		return AccessTTLRememberMe, RefreshTTLRememberMe
	}
	return AccessTTL, RefreshTTL
}

func (s *Service) issueTokens(ctx context.Context, user *models.User, rememberMe bool) (*TokenResult, error) {
	const op = "account.issueTokens"
	log := s.log.With(sl.Op(op), slog.String("user_uid", user.UUID))

	view, err := s.subscriptionView(ctx, user.UUID)
	if err != nil {
		log.Error("failed to load subscription", sl.Err(err))
		return nil, internal(err)
	}

	accessTTL, refreshTTL := tokenLifetimes(rememberMe)
	access, accessExp, err := s.tokens.GenerateToken(jwt.NewAccessClaims(
		user.UUID, user.Name, view.PlanName, string(view.Type), string(view.Status), view.CreatedAt, rememberMe,
	), accessTTL)
	if err != nil {
		log.Error("failed to sign access token", sl.Err(err))
		return nil, internal(err)
	}
	refresh, refreshExp, err := s.tokens.GenerateToken(jwt.NewRefreshClaims(user.UUID, rememberMe), refreshTTL)
	if err != nil {
		log.Error("failed to sign refresh token", sl.Err(err))
		return nil, internal(err)
	}

	return &TokenResult{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExp.UTC().Format(time.RFC3339),
		RefreshExpiresAt: refreshExp.UTC().Format(time.RFC3339),
		RememberMe:       rememberMe,
	}, nil
}

func subscriptionCacheKey(userUID string) string {
	return "subscription:" + userUID
}

// subscriptionView читает подписку из кэша, при промахе из хранилища.
func (s *Service) subscriptionView(ctx context.Context, userUID string) (*models.SubscriptionView, error) {
	const op = "account.subscriptionView"
	if s.cache != nil {
		var view models.SubscriptionView
		found, err := s.cache.Get(ctx, subscriptionCacheKey(userUID), &view)
		if err != nil {
			s.log.Warn("subscription cache read failed", sl.Op(op), sl.Err(err))
		} else if found {
			return &view, nil
		}
	}

	view, err := s.subs.GetSubscriptionView(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSubscriptionView(ctx, userUID, view)
	return view, nil
}

func (s *Service) cacheSubscriptionView(ctx context.Context, userUID string, view *models.SubscriptionView) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, subscriptionCacheKey(userUID), view, subscriptionCacheTTL); err != nil {
		s.log.Warn("subscription cache write failed", sl.Op("account.cacheSubscriptionView"), sl.Err(err))
	}
}

// equalizeTiming выполняет проверку пароля против заранее посчитанного хэша, чтобы ответ
// для неизвестного email занимал столько же времени, сколько для неверного пароля.
func (s *Service) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("farm-backend-timing-equalizer")
		if err != nil {
			s.log.Warn("failed to prepare dummy hash", sl.Err(err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(password, s.dummyHash)
	}
}
