package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tourney-api/internal/domain"
)

type mockOTP struct{ mock.Mock }

func (m *mockOTP) Request(ctx context.Context, recipient string) error {
	return m.Called(ctx, recipient).Error(0)
}
func (m *mockOTP) Verify(ctx context.Context, recipient, code string) (*domain.VerificationResult, error) {
	args := m.Called(ctx, recipient, code)
	res, _ := args.Get(0).(*domain.VerificationResult)
	return res, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUsers) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	args := m.Called(ctx, phone)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}
func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

func testDeps() (*mockOTP, *mockUsers, *mockSessions, *mockNotifications, *mockSigner, *Service) {
	o := &mockOTP{}
	u := &mockUsers{}
	s := &mockSessions{}
	n := &mockNotifications{}
	sg := &mockSigner{}
	svc := NewService(o, u, s, n, sg, Config{Channel: "sms", RefreshTokenDur: 30 * 24 * time.Hour})
	return o, u, s, n, sg, svc
}

const phone = "9876543210"

func existingUser() *domain.User {
	p := phone
	return &domain.User{UserID: "u-1", Phone: &p, Role: domain.RoleUser, Enable: true}
}

func TestVerifyOTPLogin_ExistingUser(t *testing.T) {
	o, u, s, n, sg, svc := testDeps()
	o.On("Verify", mock.Anything, phone, "482913").Return(&domain.VerificationResult{Success: true}, nil)
	u.On("GetByPhone", mock.Anything, phone).Return(existingUser(), nil)
	s.On("Put", mock.Anything, mock.MatchedBy(func(sess *domain.Session) bool {
		return sess.UserID == "u-1" && sess.Enable && sess.RefreshToken != "" &&
			sess.RefreshExpiresAt > time.Now().UnixMilli()
	})).Return(nil)
	sg.On("Sign", "u-1", domain.RoleUser, mock.AnythingOfType("string")).Return("bearer-token", nil)

	res, vres, err := svc.VerifyOTPLogin(context.Background(), phone, "482913")
	require.NoError(t, err)
	assert.True(t, vres.Success)
	assert.False(t, res.IsNewUser)
	assert.Equal(t, "bearer-token", res.Token)
	assert.NotEmpty(t, res.RefreshToken)
	u.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	n.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVerifyOTPLogin_NewUserSignup(t *testing.T) {
	o, u, s, n, sg, svc := testDeps()
	o.On("Verify", mock.Anything, phone, "482913").Return(&domain.VerificationResult{Success: true}, nil)
	u.On("GetByPhone", mock.Anything, phone).Return(nil, fmt.Errorf("nope: %w", domain.ErrNotFound))
	u.On("Put", mock.Anything, mock.MatchedBy(func(nu *domain.User) bool {
		return nu.Phone != nil && *nu.Phone == phone &&
			nu.Role == domain.RoleUser && nu.Enable && nu.UserID != ""
	})).Return(nil)
	n.On("Put", mock.Anything, mock.Anything).Return(nil)
	s.On("Put", mock.Anything, mock.Anything).Return(nil)
	sg.On("Sign", mock.Anything, domain.RoleUser, mock.Anything).Return("bearer-token", nil)

	res, _, err := svc.VerifyOTPLogin(context.Background(), phone, "482913")
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	n.AssertCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVerifyOTPLogin_PermissionDeniedTreatedAsNewUser(t *testing.T) {
	o, u, s, n, sg, svc := testDeps()
	o.On("Verify", mock.Anything, phone, "482913").Return(&domain.VerificationResult{Success: true}, nil)
	u.On("GetByPhone", mock.Anything, phone).
		Return(nil, fmt.Errorf("access denied: %w", domain.ErrPermissionDenied))
	u.On("Put", mock.Anything, mock.Anything).Return(nil)
	n.On("Put", mock.Anything, mock.Anything).Return(nil)
	s.On("Put", mock.Anything, mock.Anything).Return(nil)
	sg.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("bearer-token", nil)

	res, _, err := svc.VerifyOTPLogin(context.Background(), phone, "482913")
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	// Lookup ran exactly once; permission errors are not retried.
	u.AssertNumberOfCalls(t, "GetByPhone", 1)
}

func TestVerifyOTPLogin_WrongCodePassesThrough(t *testing.T) {
	o, u, _, _, _, svc := testDeps()
	o.On("Verify", mock.Anything, phone, "000000").
		Return(&domain.VerificationResult{Success: false, RemainingAttempts: 2},
			fmt.Errorf("invalid code: %w", domain.ErrOTPMismatch))

	_, vres, err := svc.VerifyOTPLogin(context.Background(), phone, "000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOTPMismatch))
	require.NotNil(t, vres)
	assert.Equal(t, 2, vres.RemainingAttempts)
	u.AssertNotCalled(t, "GetByPhone", mock.Anything, mock.Anything)
}

func TestVerifyOTPLogin_DisabledAccount(t *testing.T) {
	o, u, s, _, _, svc := testDeps()
	o.On("Verify", mock.Anything, phone, "482913").Return(&domain.VerificationResult{Success: true}, nil)
	disabled := existingUser()
	disabled.Enable = false
	u.On("GetByPhone", mock.Anything, phone).Return(disabled, nil)

	_, _, err := svc.VerifyOTPLogin(context.Background(), phone, "482913")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	s.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestAdminLogin_Success(t *testing.T) {
	_, u, s, _, sg, svc := testDeps()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &domain.User{UserID: "a-1", Role: domain.RoleAdmin, Enable: true, PasswordHash: string(hash)}
	u.On("GetByEmail", mock.Anything, "admin@example.com").Return(admin, nil)
	s.On("Put", mock.Anything, mock.Anything).Return(nil)
	sg.On("Sign", "a-1", domain.RoleAdmin, mock.Anything).Return("bearer-token", nil)

	res, err := svc.AdminLogin(context.Background(), "admin@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Token)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	_, u, s, _, _, svc := testDeps()
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	admin := &domain.User{UserID: "a-1", Role: domain.RoleAdmin, Enable: true, PasswordHash: string(hash)}
	u.On("GetByEmail", mock.Anything, "admin@example.com").Return(admin, nil)

	_, err := svc.AdminLogin(context.Background(), "admin@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	s.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestAdminLogin_NonAdminRejected(t *testing.T) {
	_, u, _, _, _, svc := testDeps()
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	regular := &domain.User{UserID: "u-1", Role: domain.RoleUser, Enable: true, PasswordHash: string(hash)}
	u.On("GetByEmail", mock.Anything, "user@example.com").Return(regular, nil)

	_, err := svc.AdminLogin(context.Background(), "user@example.com", "s3cret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestAdminLogin_UnknownEmail(t *testing.T) {
	_, u, _, _, _, svc := testDeps()
	u.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, fmt.Errorf("nope: %w", domain.ErrNotFound))

	_, err := svc.AdminLogin(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
