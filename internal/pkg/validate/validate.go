package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tourney-api/internal/domain"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

// Recipient format: Indian mobile numbers are exactly 10 digits with a
// leading 6-9. Email uses a simple anchored syntactic check; deliverability
// is the channel's problem.
var (
	mobileRe = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
)

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// Recipient checks the recipient format for the given channel
// ("sms" expects a mobile number, anything else an email address).
// Must pass before any store access.
func Recipient(channel, recipient string) error {
	if channel == "sms" {
		if !mobileRe.MatchString(recipient) {
			return fmt.Errorf("recipient must be a 10-digit mobile number: %w", domain.ErrBadRequest)
		}
		return nil
	}
	if !emailRe.MatchString(recipient) {
		return fmt.Errorf("recipient must be a valid email address: %w", domain.ErrBadRequest)
	}
	return nil
}

// Code checks that a submitted OTP is exactly length digits.
// Must pass before any store access.
func Code(code string, length int) error {
	if len(code) != length || !digitsRe.MatchString(code) {
		return fmt.Errorf("code must be %d digits: %w", length, domain.ErrBadRequest)
	}
	return nil
}
