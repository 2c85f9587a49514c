package reset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/farm-backend/internal/services/account"
)

type AccountServiceMock struct {
	mock.Mock
}

func (m *AccountServiceMock) ResetPassword(ctx context.Context, code, newPassword string) (*account.ResetResult, error) {
	args := m.Called(ctx, code, newPassword)
	res, _ := args.Get(0).(*account.ResetResult)
	return res, args.Error(1)
}

func TestResetHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		callsService   bool
		password       string
		mockResp       *account.ResetResult
		mockErr        error
		wantStatusCode int
		wantError      string
		wantField      string
	}{
		{
			name:           "reset",
			body:           `{"code":"12345678","newPassword":"NewPass1"}`,
			callsService:   true,
			password:       "NewPass1",
			mockResp:       &account.ResetResult{Message: account.MsgPasswordReset, UserUID: "u1", Email: "a@x.com"},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "wrong code",
			body:           `{"code":"12345678","newPassword":"NewPass1"}`,
			callsService:   true,
			password:       "NewPass1",
			mockErr:        account.NewError(account.KindBadRequest, "code", account.MsgInvalidResetCode),
			wantStatusCode: http.StatusBadRequest,
			wantError:      account.MsgInvalidResetCode,
			wantField:      "code",
		},
		{
			name:           "short password is rejected by the service",
			body:           `{"code":"12345678","newPassword":"abc"}`,
			callsService:   true,
			password:       "abc",
			mockErr:        account.NewError(account.KindBadRequest, "password", account.MsgPasswordTooShort),
			wantStatusCode: http.StatusBadRequest,
			wantError:      account.MsgPasswordTooShort,
			wantField:      "password",
		},
		{
			name:           "store failure",
			body:           `{"code":"12345678","newPassword":"NewPass1"}`,
			callsService:   true,
			password:       "NewPass1",
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      account.MsgInternal,
		},
		{
			name:           "password too long",
			body:           `{"code":"12345678","newPassword":"` + strings.Repeat("a", 80) + `"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field newPassword must be at most 72 characters",
			wantField:      "newPassword",
		},
		{
			name:           "missing fields",
			body:           `{"code":"12345678"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field newPassword is a required field",
			wantField:      "newPassword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AccountServiceMock)
			if tt.callsService {
				svc.On("ResetPassword", mock.Anything, "12345678", tt.password).Return(tt.mockResp, tt.mockErr).Once()
			}
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/reset-password", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				if tt.wantField != "" {
					assert.Equal(t, tt.wantField, got["field"])
				}
			} else {
				assert.Equal(t, map[string]any{
					"message": account.MsgPasswordReset,
					"userId":  "u1",
					"email":   "a@x.com",
				}, got["data"])
			}
			svc.AssertExpectations(t)
		})
	}
}
