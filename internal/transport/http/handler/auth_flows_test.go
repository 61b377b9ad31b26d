package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/application/token"
	"github.com/go-auth-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) RegisterRequest(ctx context.Context, req auth.RegisterRequest) (*otp.IssueResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*otp.IssueResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) RegisterConfirm(ctx context.Context, req auth.RegisterConfirmRequest) (*token.Pair, *domain.User, error) {
	args := m.Called(ctx, req)
	if p, _ := args.Get(0).(*token.Pair); p != nil {
		return p, args.Get(1).(*domain.User), args.Error(2)
	}
	return nil, nil, args.Error(2)
}
func (m *mockAuthSvc) LoginOTPRequest(ctx context.Context, email string) (*otp.IssueResult, error) {
	args := m.Called(ctx, email)
	if r, _ := args.Get(0).(*otp.IssueResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) LoginOTPConfirm(ctx context.Context, email, code string) (*token.Pair, *domain.User, error) {
	args := m.Called(ctx, email, code)
	if p, _ := args.Get(0).(*token.Pair); p != nil {
		return p, args.Get(1).(*domain.User), args.Error(2)
	}
	return nil, nil, args.Error(2)
}
func (m *mockAuthSvc) LoginPassword(ctx context.Context, req auth.PasswordLoginRequest) (*token.Pair, *domain.User, error) {
	args := m.Called(ctx, req)
	if p, _ := args.Get(0).(*token.Pair); p != nil {
		return p, args.Get(1).(*domain.User), args.Error(2)
	}
	return nil, nil, args.Error(2)
}
func (m *mockAuthSvc) PasswordResetRequest(ctx context.Context, email string) (*otp.IssueResult, error) {
	args := m.Called(ctx, email)
	if r, _ := args.Get(0).(*otp.IssueResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) PasswordResetConfirm(ctx context.Context, req auth.ResetConfirmRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthSvc) Logout(ctx context.Context, userID, refreshToken string) error {
	return m.Called(ctx, userID, refreshToken).Error(0)
}

func testUser() *domain.User {
	return &domain.User{
		UserID: "u1",
		Email:  "alice@example.com",
		Name:   "Alice",
		Role:   domain.RoleUser,
		Status: domain.StatusActive,
	}
}

func testPair() *token.Pair {
	return &token.Pair{AccessToken: "access-token", RefreshToken: "refresh-token"}
}

// --- Register tests ---

func TestRegisterAction_Request_HappyPath(t *testing.T) {
	svc := &mockAuthSvc{}
	exp := time.Date(2026, 2, 1, 12, 10, 0, 0, time.UTC)
	svc.On("RegisterRequest", mock.Anything, auth.RegisterRequest{Email: "alice@example.com", Name: "Alice"}).
		Return(&otp.IssueResult{ExpiresAt: exp}, nil)
	h := NewRegisterHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/register/request", auth.RegisterRequest{
		Email: "alice@example.com", Name: "Alice",
	}), "request")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestRegisterAction_Request_Conflict(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RegisterRequest", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)
	h := NewRegisterHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/register/request", auth.RegisterRequest{
		Email: "alice@example.com", Name: "Alice",
	}), "request")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegisterAction_Request_ValidationFailure(t *testing.T) {
	h := NewRegisterHandler(&mockAuthSvc{})

	r := withAction(jsonReq(t, http.MethodPost, "/v1/register/request", auth.RegisterRequest{
		Email: "not-an-email", Name: "Alice",
	}), "request")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRegisterAction_Confirm_HappyPath(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RegisterConfirm", mock.Anything, mock.Anything).Return(testPair(), testUser(), nil)
	h := NewRegisterHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/register/confirm", auth.RegisterConfirmRequest{
		Email: "alice@example.com", Code: "123456", Password: "hunter2hunter2",
	}), "confirm")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice@example.com", resp.User.Email)
}

func TestRegisterAction_Confirm_ShortPassword(t *testing.T) {
	h := NewRegisterHandler(&mockAuthSvc{})

	r := withAction(jsonReq(t, http.MethodPost, "/v1/register/confirm", auth.RegisterConfirmRequest{
		Email: "alice@example.com", Code: "123456", Password: "short",
	}), "confirm")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRegisterAction_UnknownAction(t *testing.T) {
	h := NewRegisterHandler(&mockAuthSvc{})

	r := withAction(jsonReq(t, http.MethodPost, "/v1/register/frobnicate", map[string]string{}), "frobnicate")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- Login tests ---

func TestLoginPassword_HappyPath(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("LoginPassword", mock.Anything, mock.Anything).Return(testPair(), testUser(), nil)
	h := NewLoginHandler(svc)

	r := jsonReq(t, http.MethodPost, "/v1/login", auth.PasswordLoginRequest{
		Email: "alice@example.com", Password: "hunter2hunter2",
	})
	rr := httptest.NewRecorder()
	h.Password(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "access-token", resp.AccessToken)
}

func TestLoginPassword_BadCredentials(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("LoginPassword", mock.Anything, mock.Anything).Return(nil, nil, domain.ErrUnauthorized)
	h := NewLoginHandler(svc)

	r := jsonReq(t, http.MethodPost, "/v1/login", auth.PasswordLoginRequest{
		Email: "alice@example.com", Password: "wrong",
	})
	rr := httptest.NewRecorder()
	h.Password(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginOTPAction_Request(t *testing.T) {
	svc := &mockAuthSvc{}
	exp := time.Date(2026, 2, 1, 12, 10, 0, 0, time.UTC)
	svc.On("LoginOTPRequest", mock.Anything, "alice@example.com").
		Return(&otp.IssueResult{ExpiresAt: exp}, nil)
	h := NewLoginHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/login/otp/request", map[string]string{
		"email": "alice@example.com",
	}), "request")
	rr := httptest.NewRecorder()
	h.OTPAction(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLoginOTPAction_Confirm_RequiresCode(t *testing.T) {
	h := NewLoginHandler(&mockAuthSvc{})

	r := withAction(jsonReq(t, http.MethodPost, "/v1/login/otp/confirm", map[string]string{
		"email": "alice@example.com",
	}), "confirm")
	rr := httptest.NewRecorder()
	h.OTPAction(rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestLoginOTPAction_Confirm_HappyPath(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("LoginOTPConfirm", mock.Anything, "alice@example.com", "123456").
		Return(testPair(), testUser(), nil)
	h := NewLoginHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/login/otp/confirm", map[string]string{
		"email": "alice@example.com", "code": "123456",
	}), "confirm")
	rr := httptest.NewRecorder()
	h.OTPAction(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "refresh-token", resp.RefreshToken)
}

// --- Password recovery tests ---

func TestRecoveryAction_Request_KnownAndUnknownLookIdentical(t *testing.T) {
	known, unknown := &mockAuthSvc{}, &mockAuthSvc{}
	known.On("PasswordResetRequest", mock.Anything, "alice@example.com").
		Return(&otp.IssueResult{ExpiresAt: time.Now().Add(10 * time.Minute)}, nil)
	unknown.On("PasswordResetRequest", mock.Anything, "ghost@example.com").
		Return(nil, nil)

	serve := func(svc *mockAuthSvc, email string) *httptest.ResponseRecorder {
		h := NewPasswordRecoveryHandler(svc)
		r := withAction(jsonReq(t, http.MethodPost, "/v1/password-recovery/request", map[string]string{
			"email": email,
		}), "request")
		rr := httptest.NewRecorder()
		h.Action(rr, r)
		return rr
	}

	rrKnown := serve(known, "alice@example.com")
	rrUnknown := serve(unknown, "ghost@example.com")

	assert.Equal(t, http.StatusOK, rrKnown.Code)
	assert.Equal(t, http.StatusOK, rrUnknown.Code)
	assert.Equal(t, rrKnown.Body.String(), rrUnknown.Body.String())
}

func TestRecoveryAction_Request_CooldownSurfaces(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("PasswordResetRequest", mock.Anything, "alice@example.com").
		Return(nil, domain.ErrTooManyRequests)
	h := NewPasswordRecoveryHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/password-recovery/request", map[string]string{
		"email": "alice@example.com",
	}), "request")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRecoveryAction_Confirm_HappyPath(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("PasswordResetConfirm", mock.Anything, auth.ResetConfirmRequest{
		Email: "alice@example.com", Code: "123456", NewPassword: "new-password-123",
	}).Return(nil)
	h := NewPasswordRecoveryHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/password-recovery/confirm", auth.ResetConfirmRequest{
		Email: "alice@example.com", Code: "123456", NewPassword: "new-password-123",
	}), "confirm")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestRecoveryAction_Confirm_ExpiredCode(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("PasswordResetConfirm", mock.Anything, mock.Anything).Return(domain.ErrCodeExpired)
	h := NewPasswordRecoveryHandler(svc)

	r := withAction(jsonReq(t, http.MethodPost, "/v1/password-recovery/confirm", auth.ResetConfirmRequest{
		Email: "alice@example.com", Code: "123456", NewPassword: "new-password-123",
	}), "confirm")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRecoveryAction_InvalidBody(t *testing.T) {
	h := NewPasswordRecoveryHandler(&mockAuthSvc{})
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/password-recovery/request", bytes.NewBufferString("not-json")), "request")
	rr := httptest.NewRecorder()
	h.Action(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
