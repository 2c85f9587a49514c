package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/models"
	"github.com/magabrotheeeer/farm-backend/internal/storage"
)

// Register создаёт пользователя и пробную подписку на тариф Enterprise.
func (s *Service) Register(ctx context.Context, in RegisterInput) (res *RegisterResult, err error) {
	const op = "account.Register"
	log := s.log.With(sl.Op(op), slog.String("email", in.Email))
	defer func() { s.record("register", err) }()

	if err = checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return nil, internal(err)
	}

	now := s.now().UTC()
	user := models.User{
		UUID:         uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Document:     in.Document,
		PasswordHash: hash,
		Phone:        in.Phone,
		Address:      in.Address,
		CreatedAt:    now,
	}
	sub := models.Subscription{
		ID:        uuid.NewString(),
		UserUID:   user.UUID,
		Type:      models.SubscriptionTrial,
		Value:     0,
		Status:    models.StatusActive,
		CreatedAt: now,
	}

	plan, err := s.users.RegisterUser(ctx, user, sub, models.EnterprisePlan)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEmailExists):
			log.Info("email already registered")
			return nil, alreadyExists("email", MsgEmailExists, err)
		case errors.Is(err, storage.ErrDocumentExists):
			log.Info("document already registered")
			return nil, alreadyExists("document", MsgDocumentExists, err)
		case errors.Is(err, storage.ErrPlanNotFound):
			log.Error("default plan is missing", slog.String("plan", models.EnterprisePlan), sl.Err(err))
			return nil, internal(err)
		default:
			log.Error("failed to register user", sl.Err(err))
			return nil, internal(err)
		}
	}

	s.cacheSubscriptionView(ctx, user.UUID, &models.SubscriptionView{
		PlanName:  plan.Name,
		Type:      sub.Type,
		Status:    sub.Status,
		CreatedAt: sub.CreatedAt,
	})

	log.Info("user registered", slog.String("user_uid", user.UUID))
	return &RegisterResult{
		UserUID:            user.UUID,
		SubscriptionID:     sub.ID,
		Name:               user.Name,
		Email:              user.Email,
		PlanName:           plan.Name,
		SubscriptionType:   sub.Type,
		SubscriptionValue:  sub.Value,
		SubscriptionStatus: sub.Status,
		CreatedAt:          user.CreatedAt,
	}, nil
}

// checkPassword проверяет длину пароля: не короче MinPasswordLength символов
// и не длиннее MaxPasswordBytes байт, больше bcrypt не принимает.
func checkPassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return badRequest("password", MsgPasswordTooShort, nil)
	}
	if len(password) > MaxPasswordBytes {
		return badRequest("password", MsgPasswordTooLong, nil)
	}
	return nil
}
