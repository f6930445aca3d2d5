package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourney-api/internal/application/auth"
	"github.com/tourney-api/internal/domain"
)

// stubOTP drives the handler without a real store or channel.
type stubOTP struct {
	requestErr error
	verifyRes  *domain.VerificationResult
	verifyErr  error
}

func (s *stubOTP) Request(context.Context, string) error { return s.requestErr }
func (s *stubOTP) Verify(context.Context, string, string) (*domain.VerificationResult, error) {
	return s.verifyRes, s.verifyErr
}

type stubUsers struct{ user *domain.User }

func (s *stubUsers) Put(context.Context, *domain.User) error { return nil }
func (s *stubUsers) GetByPhone(context.Context, string) (*domain.User, error) {
	if s.user == nil {
		return nil, fmt.Errorf("nope: %w", domain.ErrNotFound)
	}
	return s.user, nil
}
func (s *stubUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return s.GetByPhone(nil, "")
}

type stubSessions struct{}

func (stubSessions) Put(context.Context, *domain.Session) error { return nil }

type stubNotifications struct{}

func (stubNotifications) Put(context.Context, *domain.Notification) error { return nil }

type stubSigner struct{}

func (stubSigner) Sign(string, string, string) (string, error) { return "bearer-token", nil }

func newAuthHandler(otpStub *stubOTP, existing *domain.User) *AuthHandler {
	authSvc := auth.NewService(otpStub, &stubUsers{user: existing}, stubSessions{}, stubNotifications{},
		stubSigner{}, auth.Config{Channel: "sms", RefreshTokenDur: 30 * 24 * time.Hour})
	return NewAuthHandler(otpStub, authSvc)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) OTPEnvelope {
	t.Helper()
	var env OTPEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func TestSendOTP_Success(t *testing.T) {
	h := newAuthHandler(&stubOTP{}, nil)
	rr := postJSON(t, h.SendOTP, `{"recipient":"9876543210"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)
}

func TestSendOTP_ValidationError(t *testing.T) {
	h := newAuthHandler(&stubOTP{
		requestErr: fmt.Errorf("invalid recipient: %w", domain.ErrBadRequest),
	}, nil)
	rr := postJSON(t, h.SendOTP, `{"recipient":"12345"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestSendOTP_DeliveryFailure(t *testing.T) {
	h := newAuthHandler(&stubOTP{
		requestErr: fmt.Errorf("sns publish: %w", domain.ErrDelivery),
	}, nil)
	rr := postJSON(t, h.SendOTP, `{"recipient":"9876543210"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
}

func TestSendOTP_MalformedBody(t *testing.T) {
	h := newAuthHandler(&stubOTP{}, nil)
	rr := postJSON(t, h.SendOTP, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
}

func TestVerifyOTP_WrongCode_CarriesRemainingAttempts(t *testing.T) {
	h := newAuthHandler(&stubOTP{
		verifyRes: &domain.VerificationResult{Success: false, RemainingAttempts: 2},
		verifyErr: fmt.Errorf("invalid code: %w", domain.ErrOTPMismatch),
	}, nil)
	rr := postJSON(t, h.VerifyOTP, `{"recipient":"9876543210","code":"000000"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
	require.NotNil(t, env.RemainingAttempts)
	assert.Equal(t, 2, *env.RemainingAttempts)
}

func TestVerifyOTP_NoRecord(t *testing.T) {
	h := newAuthHandler(&stubOTP{
		verifyErr: fmt.Errorf("OTP not found or expired. Please request a new one: %w", domain.ErrNotFound),
	}, nil)
	rr := postJSON(t, h.VerifyOTP, `{"recipient":"9876543210","code":"482913"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
	assert.Nil(t, env.RemainingAttempts)
	assert.Contains(t, env.Error, "not found or expired")
}

func TestVerifyOTP_Success_ReturnsLoginArtifacts(t *testing.T) {
	phone := "9876543210"
	existing := &domain.User{UserID: "u-1", Phone: &phone, Role: domain.RoleUser, Enable: true}
	h := newAuthHandler(&stubOTP{verifyRes: &domain.VerificationResult{Success: true}}, existing)
	rr := postJSON(t, h.VerifyOTP, `{"recipient":"9876543210","code":"482913"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, "bearer-token", env.Token)
	assert.NotEmpty(t, env.RefreshToken)
	require.NotNil(t, env.User)
	assert.Equal(t, "u-1", env.User.UserID)
	require.NotNil(t, env.IsNewUser)
	assert.False(t, *env.IsNewUser)
}

func TestVerifyOTP_SignupPath(t *testing.T) {
	h := newAuthHandler(&stubOTP{verifyRes: &domain.VerificationResult{Success: true}}, nil)
	rr := postJSON(t, h.VerifyOTP, `{"recipient":"9876543210","code":"482913"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.True(t, env.Success)
	require.NotNil(t, env.IsNewUser)
	assert.True(t, *env.IsNewUser)
}

func TestVerifyOTP_StoreOutage(t *testing.T) {
	h := newAuthHandler(&stubOTP{
		verifyErr: fmt.Errorf("operation timed out after retries: %w", domain.ErrStoreUnavailable),
	}, nil)
	rr := postJSON(t, h.VerifyOTP, `{"recipient":"9876543210","code":"482913"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
}
