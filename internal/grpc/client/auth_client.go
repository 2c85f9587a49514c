// Package client реализует клиента сервиса учётных записей поверх gRPC.
//
// AuthClient повторяет набор методов account.Service, поэтому HTTP-слой может работать
// как с сервисом в том же процессе, так и с удалённым auth-service.
package client

import (
	"context"
	"fmt"
	"log/slog"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/magabrotheeeer/farm-backend/internal/grpc/authpb"
	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/models"
	"github.com/magabrotheeeer/farm-backend/internal/services/account"
)

// AuthClient клиент farm.auth.v1.AuthService.
type AuthClient struct {
	conn   *grpc.ClientConn
	client authpb.AuthServiceClient
	log    *slog.Logger
}

// NewAuthClient создаёт клиента. Соединение устанавливается лениво при первом вызове.
func NewAuthClient(addr string, log *slog.Logger, opts ...grpc.DialOption) (*AuthClient, error) {
	const op = "grpc.client.NewAuthClient"
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AuthClient{
		conn:   conn,
		client: authpb.NewAuthServiceClient(conn),
		log:    log,
	}, nil
}

// Close закрывает соединение.
func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// Register регистрирует пользователя.
func (a *AuthClient) Register(ctx context.Context, in account.RegisterInput) (*account.RegisterResult, error) {
	const op = "grpc.client.Register"
	req, err := authpb.Message(map[string]any{
		"name":     in.Name,
		"email":    in.Email,
		"document": in.Document,
		"password": in.Password,
		"phone":    in.Phone,
		"address":  in.Address,
	})
	if err != nil {
		return nil, internalError(op, err)
	}

	var trailer metadata.MD
	resp, err := a.client.Register(ctx, req, grpc.Trailer(&trailer))
	if err != nil {
		return nil, fromStatus(op, err, trailer)
	}

	createdAt, err := authpb.Time(resp, "createdAt")
	if err != nil {
		return nil, internalError(op, err)
	}
	return &account.RegisterResult{
		UserUID:            authpb.String(resp, "userId"),
		SubscriptionID:     authpb.String(resp, "subscriptionId"),
		Name:               authpb.String(resp, "name"),
		Email:              authpb.String(resp, "email"),
		PlanName:           authpb.String(resp, "planName"),
		SubscriptionType:   models.SubscriptionType(authpb.String(resp, "subscriptionType")),
		SubscriptionValue:  authpb.Number(resp, "subscriptionValue"),
		SubscriptionStatus: models.SubscriptionStatus(authpb.String(resp, "subscriptionStatus")),
		CreatedAt:          createdAt,
	}, nil
}

// Login выполняет вход.
func (a *AuthClient) Login(ctx context.Context, in account.LoginInput) (*account.TokenResult, error) {
	const op = "grpc.client.Login"
	req, err := authpb.Message(map[string]any{
		"email":      in.Email,
		"password":   in.Password,
		"rememberMe": in.RememberMe,
	})
	if err != nil {
		return nil, internalError(op, err)
	}

	var trailer metadata.MD
	resp, err := a.client.Login(ctx, req, grpc.Trailer(&trailer))
	if err != nil {
		return nil, fromStatus(op, err, trailer)
	}
	return tokenResult(resp), nil
}

// RefreshToken обменивает refresh-токен на новую пару.
func (a *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (*account.TokenResult, error) {
	const op = "grpc.client.RefreshToken"
	req, err := authpb.Message(map[string]any{"refreshToken": refreshToken})
	if err != nil {
		return nil, internalError(op, err)
	}

	var trailer metadata.MD
	resp, err := a.client.RefreshToken(ctx, req, grpc.Trailer(&trailer))
	if err != nil {
		return nil, fromStatus(op, err, trailer)
	}
	return tokenResult(resp), nil
}

// ForgotPassword запрашивает код сброса. Сбой транспорта не раскрывается вызывающему:
// ответ остаётся тем же, что и для неизвестного email.
func (a *AuthClient) ForgotPassword(ctx context.Context, email string) *account.ForgotResult {
	const op = "grpc.client.ForgotPassword"
	generic := &account.ForgotResult{Success: true, Message: account.MsgResetCodeSent, Email: email}

	req, err := authpb.Message(map[string]any{"email": email})
	if err != nil {
		a.log.Error("failed to encode request", sl.Op(op), sl.Err(err))
		return generic
	}
	resp, err := a.client.ForgotPassword(ctx, req)
	if err != nil {
		a.log.Error("forgot password call failed", sl.Op(op), sl.Err(err))
		return generic
	}
	return &account.ForgotResult{
		Success: authpb.Bool(resp, "success"),
		Message: authpb.String(resp, "message"),
		Email:   authpb.String(resp, "email"),
	}
}

// ValidateResetCode проверяет код сброса. Сбой транспорта считается недействительным кодом.
func (a *AuthClient) ValidateResetCode(ctx context.Context, code string) bool {
	const op = "grpc.client.ValidateResetCode"
	req, err := authpb.Message(map[string]any{"code": code})
	if err != nil {
		a.log.Error("failed to encode request", sl.Op(op), sl.Err(err))
		return false
	}
	resp, err := a.client.ValidateResetCode(ctx, req)
	if err != nil {
		a.log.Error("validate reset code call failed", sl.Op(op), sl.Err(err))
		return false
	}
	return authpb.Bool(resp, "valid")
}

// ResetPassword меняет пароль по коду.
func (a *AuthClient) ResetPassword(ctx context.Context, code, newPassword string) (*account.ResetResult, error) {
	const op = "grpc.client.ResetPassword"
	req, err := authpb.Message(map[string]any{"code": code, "newPassword": newPassword})
	if err != nil {
		return nil, internalError(op, err)
	}

	var trailer metadata.MD
	resp, err := a.client.ResetPassword(ctx, req, grpc.Trailer(&trailer))
	if err != nil {
		return nil, fromStatus(op, err, trailer)
	}
	return &account.ResetResult{
		Message: authpb.String(resp, "message"),
		UserUID: authpb.String(resp, "userId"),
		Email:   authpb.String(resp, "email"),
	}, nil
}

// ValidateToken проверяет access-токен на стороне auth-service.
func (a *AuthClient) ValidateToken(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	const op = "grpc.client.ValidateToken"
	req, err := authpb.Message(map[string]any{"token": accessToken})
	if err != nil {
		return nil, internalError(op, err)
	}

	var trailer metadata.MD
	resp, err := a.client.ValidateToken(ctx, req, grpc.Trailer(&trailer))
	if err != nil {
		return nil, fromStatus(op, err, trailer)
	}
	claims, err := decodeClaims(resp)
	if err != nil {
		return nil, internalError(op, err)
	}
	return claims, nil
}

func tokenResult(resp *structpb.Struct) *account.TokenResult {
	return &account.TokenResult{
		AccessToken:      authpb.String(resp, "accessToken"),
		RefreshToken:     authpb.String(resp, "refreshToken"),
		ExpiresAt:        authpb.String(resp, "expiresAt"),
		RefreshExpiresAt: authpb.String(resp, "refreshExpiresAt"),
		RememberMe:       authpb.Bool(resp, "rememberMe"),
	}
}

func decodeClaims(resp *structpb.Struct) (*jwt.Claims, error) {
	remember := authpb.Bool(resp, "rememberMe")
	claims := &jwt.Claims{
		Type:               jwt.TokenType(authpb.String(resp, "type")),
		Name:               authpb.String(resp, "name"),
		PlanName:           authpb.String(resp, "planName"),
		SubscriptionType:   authpb.String(resp, "subscriptionType"),
		SubscriptionStatus: authpb.String(resp, "subscriptionStatus"),
		RememberMe:         &remember,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject: authpb.String(resp, "userId"),
			Issuer:  authpb.String(resp, "issuer"),
			ID:      authpb.String(resp, "jti"),
		},
	}

	subCreatedAt, err := authpb.Time(resp, "subscriptionCreatedAt")
	if err != nil {
		return nil, err
	}
	if !subCreatedAt.IsZero() {
		claims.SubscriptionCreatedAt = &subCreatedAt
	}
	issuedAt, err := authpb.Time(resp, "issuedAt")
	if err != nil {
		return nil, err
	}
	if !issuedAt.IsZero() {
		claims.IssuedAt = jwtlib.NewNumericDate(issuedAt)
	}
	expiresAt, err := authpb.Time(resp, "expiresAt")
	if err != nil {
		return nil, err
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwtlib.NewNumericDate(expiresAt)
	}
	return claims, nil
}

// KindOf возвращает класс ошибки сервиса для кода gRPC.
func KindOf(code codes.Code) account.Kind {
	switch code {
	case codes.AlreadyExists:
		return account.KindAlreadyExists
	case codes.Unauthenticated:
		return account.KindUnauthorized
	case codes.InvalidArgument:
		return account.KindBadRequest
	default:
		return account.KindInternal
	}
}

func fromStatus(op string, err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return internalError(op, err)
	}
	kind := KindOf(st.Code())
	if kind == account.KindInternal {
		return internalError(op, err)
	}
	var field string
	if values := trailer.Get(authpb.ErrorFieldKey); len(values) > 0 {
		field = values[0]
	}
	return account.NewError(kind, field, st.Message())
}

func internalError(op string, err error) error {
	return &account.Error{
		Kind:    account.KindInternal,
		Message: account.MsgInternal,
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}
