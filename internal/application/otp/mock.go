package otp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/pkg/validate"
)

// mockService is the bypass strategy: one fixed sentinel code, no store or
// channel access. Selected once at startup via OTP_MOCK_ENABLED; main
// refuses to run it in production. Kept only because existing clients
// depend on the observable behavior during development.
type mockService struct {
	cfg      Config
	sentinel string
}

func NewMockService(cfg Config, sentinel string) Service {
	return &mockService{cfg: cfg, sentinel: sentinel}
}

func (s *mockService) Request(ctx context.Context, recipient string) error {
	if err := validate.Recipient(s.cfg.Channel, recipient); err != nil {
		return err
	}
	slog.Warn("mock OTP mode: no code dispatched", "recipient", recipient)
	return nil
}

func (s *mockService) Verify(ctx context.Context, recipient, submitted string) (*domain.VerificationResult, error) {
	submitted = strings.TrimSpace(submitted)
	if err := validate.Recipient(s.cfg.Channel, recipient); err != nil {
		return nil, err
	}
	if err := validate.Code(submitted, s.cfg.CodeLength); err != nil {
		return nil, err
	}
	if submitted != s.sentinel {
		return &domain.VerificationResult{Success: false}, fmt.Errorf("invalid code: %w", domain.ErrOTPMismatch)
	}
	return &domain.VerificationResult{Success: true}, nil
}
