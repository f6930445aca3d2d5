package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/pkg/retry"
	"github.com/tourney-api/internal/pkg/validate"
)

// Store is the document-store surface the lifecycle needs. Put overwrites
// any prior record for the recipient; IncrementAttempts is atomic and
// conditioned on the record still holding the given code.
type Store interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, recipient string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, recipient string) error
	IncrementAttempts(ctx context.Context, recipient, code string) (int, error)
}

// Config carries the lifecycle knobs.
type Config struct {
	Channel     string // "sms" | "email" — selects the recipient format check
	CodeLength  int
	TTL         time.Duration
	MaxAttempts int
	Retry       retry.Options // zero value uses the package defaults
}

// Service is the OTP lifecycle: issue codes, verify them, destroy records
// on success, expiry, or attempt exhaustion.
type Service interface {
	Request(ctx context.Context, recipient string) error
	Verify(ctx context.Context, recipient, code string) (*domain.VerificationResult, error)
}

type service struct {
	store   Store
	channel Channel
	cfg     Config
}

func NewService(store Store, channel Channel, cfg Config) Service {
	return &service{store: store, channel: channel, cfg: cfg}
}

// Request issues a fresh code for recipient, overwriting any prior record.
// An unconfigured channel is rejected before the store is touched.
// The record is written before dispatch; if dispatch fails the record is
// left in place (a retried Request overwrites it, which is safe because
// the store holds at most one record per recipient) and the caller gets a
// delivery error.
func (s *service) Request(ctx context.Context, recipient string) error {
	if err := validate.Recipient(s.cfg.Channel, recipient); err != nil {
		return err
	}
	if err := s.channel.Ready(); err != nil {
		return err
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	rec := &domain.OTPRecord{
		Recipient: recipient,
		Code:      code,
		ExpiresAt: time.Now().Add(s.cfg.TTL).UnixMilli(),
		Attempts:  0,
	}
	if err := retry.DoWith(ctx, s.cfg.Retry, func(ctx context.Context) error {
		return s.store.Put(ctx, rec)
	}); err != nil {
		return fmt.Errorf("store otp record: %w", err)
	}

	if err := s.channel.Send(ctx, recipient, code); err != nil {
		return err
	}
	return nil
}

// Verify runs the submitted code through the record's state machine.
// Rules are evaluated in order: format, existence, expiry, exhaustion,
// then comparison. Every terminal state destroys the record; deletions
// are best-effort and never mask the result being returned.
func (s *service) Verify(ctx context.Context, recipient, submitted string) (*domain.VerificationResult, error) {
	submitted = strings.TrimSpace(submitted)
	if err := validate.Recipient(s.cfg.Channel, recipient); err != nil {
		return nil, err
	}
	if err := validate.Code(submitted, s.cfg.CodeLength); err != nil {
		return nil, err
	}

	var rec *domain.OTPRecord
	err := retry.DoWith(ctx, s.cfg.Retry, func(ctx context.Context) error {
		var err error
		rec, err = s.store.Get(ctx, recipient)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("OTP not found or expired. Please request a new one: %w", domain.ErrNotFound)
		}
		// Store trouble is not a missing record; keep the class intact so
		// the transport layer reports connectivity, not "request a new code".
		return nil, fmt.Errorf("load otp record: %w", err)
	}

	if time.Now().UnixMilli() > rec.ExpiresAt {
		s.deleteRecord(ctx, recipient, "expired")
		return nil, fmt.Errorf("OTP has expired. Please request a new one: %w", domain.ErrOTPExpired)
	}

	if rec.Attempts >= s.cfg.MaxAttempts {
		s.deleteRecord(ctx, recipient, "exhausted")
		return nil, fmt.Errorf("too many failed attempts. Please request a new one: %w", domain.ErrOTPExhausted)
	}

	if submitted == rec.Code {
		// Single-use guarantee: the record authorizes exactly one success.
		s.deleteRecord(ctx, recipient, "consumed")
		return &domain.VerificationResult{Success: true}, nil
	}

	attempts, err := s.store.IncrementAttempts(ctx, recipient, rec.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The record was overwritten or removed between read and
			// increment; the code the caller submitted no longer exists.
			return nil, fmt.Errorf("OTP not found or expired. Please request a new one: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update attempt counter: %w", err)
	}
	remaining := s.cfg.MaxAttempts - attempts
	if remaining <= 0 {
		s.deleteRecord(ctx, recipient, "exhausted")
		return &domain.VerificationResult{Success: false},
			fmt.Errorf("too many failed attempts. Please request a new one: %w", domain.ErrOTPExhausted)
	}
	return &domain.VerificationResult{Success: false, RemainingAttempts: remaining},
		fmt.Errorf("invalid code: %w", domain.ErrOTPMismatch)
}

// deleteRecord is best-effort: a failed delete is logged, never returned,
// so it cannot mask the verification outcome.
func (s *service) deleteRecord(ctx context.Context, recipient, reason string) {
	if err := s.store.Delete(ctx, recipient); err != nil {
		slog.Warn("failed to delete otp record", "recipient", recipient, "reason", reason, "err", err)
	}
}

// generateCode produces a uniformly random fixed-length digit string from
// crypto/rand.
func generateCode(length int) (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
