package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/pkg/retry"
	"github.com/tourney-api/internal/pkg/token"
)

// Store is the slice of the session repository this service needs.
type Store interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

// UserStore resolves the session's owner.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// TokenSigner mints a fresh access token on refresh.
type TokenSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type Config struct {
	RefreshTokenDur time.Duration
}

// RefreshResult carries the rotated credential pair.
type RefreshResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type Service struct {
	sessions Store
	users    UserStore
	signer   TokenSigner
	cfg      Config
}

func NewService(sessions Store, users UserStore, signer TokenSigner, cfg Config) *Service {
	return &Service{sessions: sessions, users: users, signer: signer, cfg: cfg}
}

// GetCurrent returns the caller's session with its owner attached.
func (s *Service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess *domain.Session
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		sess, err = s.sessions.Get(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session disabled: %w", domain.ErrUnauthorized)
	}
	if user, err := s.users.Get(ctx, sess.UserID); err == nil {
		user.PasswordHash = ""
		sess.User = user
	}
	return sess, nil
}

// Refresh exchanges a valid refresh token for a new access token and a
// rotated refresh token. The old refresh token stops working immediately.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	var sess *domain.Session
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		sess, err = s.sessions.GetByRefreshToken(ctx, refreshToken)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if time.Now().UnixMilli() > sess.RefreshExpiresAt {
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	user, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}

	newToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	newExpiry := time.Now().Add(s.cfg.RefreshTokenDur).UnixMilli()
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry)
	}); err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	bearer, err := s.signer.Sign(user.UserID, user.Role, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &RefreshResult{Token: bearer, RefreshToken: newToken}, nil
}

// Logout disables the session; the access token dies with it at the next
// auth check, the refresh token immediately.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
	})
}
