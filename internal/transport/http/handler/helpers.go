package handler

import (
	"errors"
	"net/http"

	"github.com/tourney-api/internal/domain"
)

// httpError maps domain sentinels onto HTTP status codes. Unrecognized
// errors become a generic 500 so internals never leak to clients.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrInvalidStatusChange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrTournamentFull),
		errors.Is(err, domain.ErrRegistrationClosed),
		errors.Is(err, domain.ErrInsufficientPoints):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// otpError renders an OTP failure in the public wire shape. The lifecycle
// states (not found, expired, exhausted, mismatch) and malformed input are
// client errors; delivery, configuration, and store trouble are 500s.
func otpError(w http.ResponseWriter, err error, vres *domain.VerificationResult) {
	env := OTPEnvelope{Success: false, Error: err.Error()}
	if vres != nil && vres.RemainingAttempts > 0 {
		n := vres.RemainingAttempts
		env.RemainingAttempts = &n
	}
	switch {
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrOTPExpired),
		errors.Is(err, domain.ErrOTPExhausted),
		errors.Is(err, domain.ErrOTPMismatch),
		errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusBadRequest, env)
	default:
		env.Error = "something went wrong, please try again"
		writeJSON(w, http.StatusInternalServerError, env)
	}
}
