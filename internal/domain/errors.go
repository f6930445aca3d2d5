package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// OTP lifecycle terminal states. All three leave no usable record behind.
	ErrOTPExpired   = errors.New("otp expired")
	ErrOTPExhausted = errors.New("otp attempts exhausted")
	ErrOTPMismatch  = errors.New("invalid code")

	// Infrastructure classes surfaced to callers.
	ErrDelivery         = errors.New("delivery failed")
	ErrConfiguration    = errors.New("missing configuration")
	ErrStoreUnavailable = errors.New("store unavailable") // transient; retryable
	ErrPermissionDenied = errors.New("permission denied") // never retried

	// Enrollment business rules.
	ErrRegistrationClosed  = errors.New("tournament registration is not open")
	ErrTournamentFull      = errors.New("tournament is full")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this tournament")
	ErrInsufficientPoints  = errors.New("insufficient points balance")
	ErrInvalidStatusChange = errors.New("invalid tournament status transition")
)
