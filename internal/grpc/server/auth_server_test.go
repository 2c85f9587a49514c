package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/magabrotheeeer/farm-backend/internal/grpc/authpb"
	"github.com/magabrotheeeer/farm-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/farm-backend/internal/models"
	"github.com/magabrotheeeer/farm-backend/internal/services/account"
)

// MockAccountService мок для AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, in account.RegisterInput) (*account.RegisterResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.RegisterResult), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, in account.LoginInput) (*account.TokenResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.TokenResult), args.Error(1)
}

func (m *MockAccountService) RefreshToken(ctx context.Context, refreshToken string) (*account.TokenResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.TokenResult), args.Error(1)
}

func (m *MockAccountService) ForgotPassword(ctx context.Context, email string) *account.ForgotResult {
	args := m.Called(ctx, email)
	return args.Get(0).(*account.ForgotResult)
}

func (m *MockAccountService) ValidateResetCode(ctx context.Context, code string) bool {
	args := m.Called(ctx, code)
	return args.Bool(0)
}

func (m *MockAccountService) ResetPassword(ctx context.Context, code, newPassword string) (*account.ResetResult, error) {
	args := m.Called(ctx, code, newPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.ResetResult), args.Error(1)
}

func (m *MockAccountService) ValidateToken(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.Claims), args.Error(1)
}

var _ AccountService = (*MockAccountService)(nil)

func newTestServer() (*AuthServer, *MockAccountService) {
	svc := new(MockAccountService)
	return NewAuthServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil))), svc
}

func mustMessage(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	msg, err := authpb.Message(fields)
	require.NoError(t, err)
	return msg
}

func TestAuthServer_Register(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := account.RegisterInput{
		Name: "Иван", Email: "a@x.com", Document: "123", Password: "secret1", Phone: "+7", Address: "ул. 1",
	}
	req := map[string]any{
		"name": in.Name, "email": in.Email, "document": in.Document,
		"password": in.Password, "phone": in.Phone, "address": in.Address,
	}

	tests := []struct {
		name     string
		svcErr   error
		wantCode codes.Code
		wantMsg  string
	}{
		{name: "success", wantCode: codes.OK},
		{
			name:     "email conflict",
			svcErr:   account.NewError(account.KindAlreadyExists, "email", account.MsgEmailExists),
			wantCode: codes.AlreadyExists,
			wantMsg:  account.MsgEmailExists,
		},
		{
			name:     "internal error hides cause",
			svcErr:   &account.Error{Kind: account.KindInternal, Message: account.MsgInternal, Err: errors.New("plan Basic not found")},
			wantCode: codes.Internal,
			wantMsg:  account.MsgInternal,
		},
		{
			name:     "foreign error is internal",
			svcErr:   errors.New("boom"),
			wantCode: codes.Internal,
			wantMsg:  account.MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svc := newTestServer()
			if tt.svcErr != nil {
				svc.On("Register", mock.Anything, in).Return(nil, tt.svcErr)
			} else {
				svc.On("Register", mock.Anything, in).Return(&account.RegisterResult{
					UserUID: "u1", SubscriptionID: "s1", Name: in.Name, Email: in.Email,
					PlanName: "Basic", SubscriptionType: models.SubscriptionTrial,
					SubscriptionStatus: models.StatusActive, CreatedAt: createdAt,
				}, nil)
			}

			resp, err := srv.Register(context.Background(), mustMessage(t, req))

			if tt.wantCode == codes.OK {
				require.NoError(t, err)
				assert.Equal(t, "u1", authpb.String(resp, "userId"))
				assert.Equal(t, "Basic", authpb.String(resp, "planName"))
				assert.Equal(t, string(models.SubscriptionTrial), authpb.String(resp, "subscriptionType"))
				assert.Zero(t, authpb.Number(resp, "subscriptionValue"))
				got, terr := authpb.Time(resp, "createdAt")
				require.NoError(t, terr)
				assert.True(t, createdAt.Equal(got))
			} else {
				require.Error(t, err)
				st, ok := status.FromError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, st.Code())
				assert.Equal(t, tt.wantMsg, st.Message())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthServer_Login(t *testing.T) {
	srv, svc := newTestServer()
	in := account.LoginInput{Email: "a@x.com", Password: "secret1", RememberMe: true}
	svc.On("Login", mock.Anything, in).Return(&account.TokenResult{
		AccessToken: "a", RefreshToken: "r", ExpiresAt: "2025-03-31T12:00:00Z",
		RefreshExpiresAt: "2025-04-30T12:00:00Z", RememberMe: true,
	}, nil)

	resp, err := srv.Login(context.Background(), mustMessage(t, map[string]any{
		"email": in.Email, "password": in.Password, "rememberMe": true,
	}))

	require.NoError(t, err)
	assert.Equal(t, "a", authpb.String(resp, "accessToken"))
	assert.Equal(t, "r", authpb.String(resp, "refreshToken"))
	assert.Equal(t, "2025-03-31T12:00:00Z", authpb.String(resp, "expiresAt"))
	assert.True(t, authpb.Bool(resp, "rememberMe"))
	svc.AssertExpectations(t)
}

func TestAuthServer_LoginUnauthorized(t *testing.T) {
	srv, svc := newTestServer()
	svc.On("Login", mock.Anything, mock.Anything).
		Return(nil, account.NewError(account.KindUnauthorized, "", account.MsgInvalidCredentials))

	_, err := srv.Login(context.Background(), mustMessage(t, map[string]any{"email": "a@x.com"}))

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, account.MsgInvalidCredentials, st.Message())
}

func TestAuthServer_RefreshToken(t *testing.T) {
	srv, svc := newTestServer()
	svc.On("RefreshToken", mock.Anything, "old").Return(&account.TokenResult{AccessToken: "a2", RefreshToken: "r2"}, nil)

	resp, err := srv.RefreshToken(context.Background(), mustMessage(t, map[string]any{"refreshToken": "old"}))

	require.NoError(t, err)
	assert.Equal(t, "a2", authpb.String(resp, "accessToken"))
	assert.Equal(t, "r2", authpb.String(resp, "refreshToken"))
}

func TestAuthServer_ForgotPassword(t *testing.T) {
	srv, svc := newTestServer()
	svc.On("ForgotPassword", mock.Anything, "ghost@x.com").Return(&account.ForgotResult{
		Success: true, Message: account.MsgResetCodeSent, Email: "ghost@x.com",
	})

	resp, err := srv.ForgotPassword(context.Background(), mustMessage(t, map[string]any{"email": "ghost@x.com"}))

	require.NoError(t, err)
	assert.True(t, authpb.Bool(resp, "success"))
	assert.Equal(t, account.MsgResetCodeSent, authpb.String(resp, "message"))
	assert.Equal(t, "ghost@x.com", authpb.String(resp, "email"))
}

func TestAuthServer_ValidateResetCode(t *testing.T) {
	srv, svc := newTestServer()
	svc.On("ValidateResetCode", mock.Anything, "12345678").Return(true)
	svc.On("ValidateResetCode", mock.Anything, "00000000").Return(false)

	resp, err := srv.ValidateResetCode(context.Background(), mustMessage(t, map[string]any{"code": "12345678"}))
	require.NoError(t, err)
	assert.True(t, authpb.Bool(resp, "valid"))

	resp, err = srv.ValidateResetCode(context.Background(), mustMessage(t, map[string]any{"code": "00000000"}))
	require.NoError(t, err)
	assert.False(t, authpb.Bool(resp, "valid"))
}

func TestAuthServer_ResetPassword(t *testing.T) {
	srv, svc := newTestServer()
	svc.On("ResetPassword", mock.Anything, "12345678", "newpass").Return(&account.ResetResult{
		Message: account.MsgPasswordReset, UserUID: "u1", Email: "a@x.com",
	}, nil)
	svc.On("ResetPassword", mock.Anything, "12345678", "short").
		Return(nil, account.NewError(account.KindBadRequest, "password", account.MsgPasswordTooShort))

	resp, err := srv.ResetPassword(context.Background(), mustMessage(t, map[string]any{"code": "12345678", "newPassword": "newpass"}))
	require.NoError(t, err)
	assert.Equal(t, account.MsgPasswordReset, authpb.String(resp, "message"))
	assert.Equal(t, "u1", authpb.String(resp, "userId"))

	_, err = srv.ResetPassword(context.Background(), mustMessage(t, map[string]any{"code": "12345678", "newPassword": "short"}))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, account.MsgPasswordTooShort, st.Message())
}

func TestAuthServer_ValidateToken(t *testing.T) {
	srv, svc := newTestServer()
	subCreated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	claims := jwt.NewAccessClaims("u1", "Иван", "Basic", "trial", "active", subCreated, false)
	svc.On("ValidateToken", mock.Anything, "good").Return(&claims, nil)
	svc.On("ValidateToken", mock.Anything, "bad").
		Return(nil, account.NewError(account.KindUnauthorized, "", account.MsgInvalidToken))

	resp, err := srv.ValidateToken(context.Background(), mustMessage(t, map[string]any{"token": "good"}))
	require.NoError(t, err)
	assert.Equal(t, "u1", authpb.String(resp, "userId"))
	assert.Equal(t, "access", authpb.String(resp, "type"))
	assert.Equal(t, "Basic", authpb.String(resp, "planName"))
	assert.False(t, authpb.Bool(resp, "rememberMe"))
	got, err := authpb.Time(resp, "subscriptionCreatedAt")
	require.NoError(t, err)
	assert.True(t, subCreated.Equal(got))

	_, err = srv.ValidateToken(context.Background(), mustMessage(t, map[string]any{"token": "bad"}))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, st.Code())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, codes.AlreadyExists, CodeOf(account.KindAlreadyExists))
	assert.Equal(t, codes.Unauthenticated, CodeOf(account.KindUnauthorized))
	assert.Equal(t, codes.InvalidArgument, CodeOf(account.KindBadRequest))
	assert.Equal(t, codes.Internal, CodeOf(account.KindInternal))
}
