// Package server реализует gRPC-сервер сервиса учётных записей.
//
// AuthServer принимает запросы farm.auth.v1.AuthService, делегирует их AccountService
// и переводит ошибки сервиса в коды gRPC. Поле, к которому относится ошибка,
// передаётся в trailer-метаданных.
package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/magabrotheeeer/farm-backend/internal/grpc/authpb"
	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/services/account"
)

// AccountService операции сервиса учётных записей.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.RegisterResult, error)
	Login(ctx context.Context, in account.LoginInput) (*account.TokenResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*account.TokenResult, error)
	ForgotPassword(ctx context.Context, email string) *account.ForgotResult
	ValidateResetCode(ctx context.Context, code string) bool
	ResetPassword(ctx context.Context, code, newPassword string) (*account.ResetResult, error)
	ValidateToken(ctx context.Context, accessToken string) (*jwt.Claims, error)
}

// AuthServer реализует authpb.AuthServiceServer.
type AuthServer struct {
	accounts AccountService
	log      *slog.Logger
}

var _ authpb.AuthServiceServer = (*AuthServer)(nil)

// NewAuthServer создает новый экземпляр AuthServer.
func NewAuthServer(accounts AccountService, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		accounts: accounts,
		log:      logger,
	}
}

// Register создает пользователя вместе с подпиской.
func (s *AuthServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.Register"
	res, err := s.accounts.Register(ctx, account.RegisterInput{
		Name:     authpb.String(req, "name"),
		Email:    authpb.String(req, "email"),
		Document: authpb.String(req, "document"),
		Password: authpb.String(req, "password"),
		Phone:    authpb.String(req, "phone"),
		Address:  authpb.String(req, "address"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, op, err)
	}
	return s.reply(op, map[string]any{
		"userId":             res.UserUID,
		"subscriptionId":     res.SubscriptionID,
		"name":               res.Name,
		"email":              res.Email,
		"planName":           res.PlanName,
		"subscriptionType":   string(res.SubscriptionType),
		"subscriptionValue":  res.SubscriptionValue,
		"subscriptionStatus": string(res.SubscriptionStatus),
		"createdAt":          res.CreatedAt,
	})
}

// Login проверяет учётные данные и выпускает пару токенов.
func (s *AuthServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.Login"
	res, err := s.accounts.Login(ctx, account.LoginInput{
		Email:      authpb.String(req, "email"),
		Password:   authpb.String(req, "password"),
		RememberMe: authpb.Bool(req, "rememberMe"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, op, err)
	}
	return s.reply(op, tokenFields(res))
}

// RefreshToken выпускает новую пару токенов по refresh-токену.
func (s *AuthServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.RefreshToken"
	res, err := s.accounts.RefreshToken(ctx, authpb.String(req, "refreshToken"))
	if err != nil {
		return nil, s.toStatus(ctx, op, err)
	}
	return s.reply(op, tokenFields(res))
}

// ForgotPassword запрашивает код сброса. Ответ не зависит от того, известен ли email.
func (s *AuthServer) ForgotPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.ForgotPassword"
	res := s.accounts.ForgotPassword(ctx, authpb.String(req, "email"))
	return s.reply(op, map[string]any{
		"success": res.Success,
		"message": res.Message,
		"email":   res.Email,
	})
}

// ValidateResetCode проверяет код сброса без его погашения.
func (s *AuthServer) ValidateResetCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.ValidateResetCode"
	return s.reply(op, map[string]any{
		"valid": s.accounts.ValidateResetCode(ctx, authpb.String(req, "code")),
	})
}

// ResetPassword меняет пароль по коду сброса.
func (s *AuthServer) ResetPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.ResetPassword"
	res, err := s.accounts.ResetPassword(ctx, authpb.String(req, "code"), authpb.String(req, "newPassword"))
	if err != nil {
		return nil, s.toStatus(ctx, op, err)
	}
	return s.reply(op, map[string]any{
		"message": res.Message,
		"userId":  res.UserUID,
		"email":   res.Email,
	})
}

// ValidateToken проверяет access-токен и возвращает его claims.
func (s *AuthServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.server.ValidateToken"
	claims, err := s.accounts.ValidateToken(ctx, authpb.String(req, "token"))
	if err != nil {
		return nil, s.toStatus(ctx, op, err)
	}
	fields := map[string]any{
		"userId":             claims.UserUID(),
		"type":               string(claims.Type),
		"name":               claims.Name,
		"planName":           claims.PlanName,
		"subscriptionType":   claims.SubscriptionType,
		"subscriptionStatus": claims.SubscriptionStatus,
		"rememberMe":         claims.Remember(),
		"issuer":             claims.Issuer,
		"jti":                claims.ID,
	}
	if claims.SubscriptionCreatedAt != nil {
		fields["subscriptionCreatedAt"] = *claims.SubscriptionCreatedAt
	}
	if claims.IssuedAt != nil {
		fields["issuedAt"] = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		fields["expiresAt"] = claims.ExpiresAt.Time
	}
	return s.reply(op, fields)
}

func tokenFields(res *account.TokenResult) map[string]any {
	return map[string]any{
		"accessToken":      res.AccessToken,
		"refreshToken":     res.RefreshToken,
		"expiresAt":        res.ExpiresAt,
		"refreshExpiresAt": res.RefreshExpiresAt,
		"rememberMe":       res.RememberMe,
	}
}

func (s *AuthServer) reply(op string, fields map[string]any) (*structpb.Struct, error) {
	msg, err := authpb.Message(fields)
	if err != nil {
		s.log.Error("failed to encode response", sl.Op(op), sl.Err(err))
		return nil, status.Error(codes.Internal, account.MsgInternal)
	}
	return msg, nil
}

// CodeOf возвращает код gRPC для класса ошибки сервиса.
func CodeOf(kind account.Kind) codes.Code {
	switch kind {
	case account.KindAlreadyExists:
		return codes.AlreadyExists
	case account.KindUnauthorized:
		return codes.Unauthenticated
	case account.KindBadRequest:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

func (s *AuthServer) toStatus(ctx context.Context, op string, err error) error {
	kind := account.KindOf(err)
	if kind == account.KindInternal {
		s.log.Error("request failed", sl.Op(op), sl.Err(err))
		return status.Error(codes.Internal, account.MsgInternal)
	}
	s.log.Info("request rejected", sl.Op(op), slog.String("kind", kind.String()), sl.Err(err))
	if field := account.FieldOf(err); field != "" {
		if terr := grpc.SetTrailer(ctx, metadata.Pairs(authpb.ErrorFieldKey, field)); terr != nil {
			s.log.Warn("failed to set error field trailer", sl.Op(op), sl.Err(terr))
		}
	}
	return status.Error(CodeOf(kind), account.MessageOf(err))
}
