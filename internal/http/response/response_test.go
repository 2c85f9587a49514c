package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/farm-backend/internal/services/account"
)

func TestAccountError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantField  string
	}{
		{
			name:       "already exists",
			err:        account.NewError(account.KindAlreadyExists, "email", account.MsgEmailExists),
			wantStatus: http.StatusConflict,
			wantMsg:    account.MsgEmailExists,
			wantField:  "email",
		},
		{
			name:       "unauthorized",
			err:        account.NewError(account.KindUnauthorized, "", account.MsgInvalidCredentials),
			wantStatus: http.StatusUnauthorized,
			wantMsg:    account.MsgInvalidCredentials,
		},
		{
			name:       "bad request",
			err:        account.NewError(account.KindBadRequest, "code", account.MsgInvalidResetCode),
			wantStatus: http.StatusBadRequest,
			wantMsg:    account.MsgInvalidResetCode,
			wantField:  "code",
		},
		{
			name:       "internal hides cause",
			err:        &account.Error{Kind: account.KindInternal, Message: account.MsgInternal, Err: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    account.MsgInternal,
		},
		{
			name:       "foreign error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    account.MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := AccountError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Error)
			assert.Equal(t, tt.wantField, resp.Field)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password,omitempty" validate:"required,min=6"`
		Code     string `validate:"numeric"`
	}

	err := NewValidator().Struct(request{Email: "not-an-email", Password: "abc", Code: "12a"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t,
		"field email must be a valid email, field password must be at least 6 characters, field Code can contain only numbers",
		resp.Error)
	assert.Equal(t, "email", resp.Field)
}

func TestOKWithData(t *testing.T) {
	resp := OKWithData(map[string]any{"valid": true})
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]any{"valid": true}, resp.Data)
}
