package otp

import (
	"context"
	"fmt"

	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/infrastructure/smtp"
	"github.com/tourney-api/internal/infrastructure/sns"
)

// Channel delivers a generated code to a recipient. Implementations are
// selected once at startup (SMS, email, or the mock bypass) — never per call.
// Ready reports whether the channel can deliver at all, so a misconfigured
// deployment is rejected before any record is written.
type Channel interface {
	Ready() error
	Send(ctx context.Context, recipient, code string) error
}

type smsChannel struct {
	sender sns.SMSSender
}

// NewSMSChannel delivers codes over SNS. A nil sender means the deployment
// is missing SNS credentials; Ready reports that as a configuration error
// rather than a delivery failure.
func NewSMSChannel(sender sns.SMSSender) Channel {
	return &smsChannel{sender: sender}
}

func (c *smsChannel) Ready() error {
	if c.sender == nil {
		return fmt.Errorf("sms sender not configured: %w", domain.ErrConfiguration)
	}
	return nil
}

func (c *smsChannel) Send(ctx context.Context, recipient, code string) error {
	if err := c.Ready(); err != nil {
		return err
	}
	return c.sender.SendSMS(ctx, "+91"+recipient, "Your verification code is "+code+". It expires shortly; do not share it.")
}

type emailChannel struct {
	mailer smtp.Mailer
}

// NewEmailChannel delivers codes over SMTP.
func NewEmailChannel(mailer smtp.Mailer) Channel {
	return &emailChannel{mailer: mailer}
}

func (c *emailChannel) Ready() error {
	if c.mailer == nil {
		return fmt.Errorf("mailer not configured: %w", domain.ErrConfiguration)
	}
	return nil
}

func (c *emailChannel) Send(_ context.Context, recipient, code string) error {
	if err := c.Ready(); err != nil {
		return err
	}
	return c.mailer.SendEmail(recipient, "Your verification code", "Your verification code is "+code+". It expires shortly; do not share it.")
}
