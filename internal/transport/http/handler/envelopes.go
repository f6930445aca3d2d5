package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tourney-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OTPEnvelope is the wire shape of the public OTP endpoints. A wrong code
// with attempts remaining carries remainingAttempts; verified logins carry
// the session artifacts.
type OTPEnvelope struct {
	Success           bool         `json:"success"`
	Error             string       `json:"error,omitempty"`
	RemainingAttempts *int         `json:"remainingAttempts,omitempty"`
	Token             string       `json:"token,omitempty"`
	RefreshToken      string       `json:"refresh_token,omitempty"`
	User              *domain.User `json:"user,omitempty"`
	IsNewUser         *bool        `json:"is_new_user,omitempty"`
}

// AuthEnvelope wraps admin-login and refresh responses.
type AuthEnvelope struct {
	Token        string       `json:"token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *domain.User `json:"user,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user list responses.
type PaginatedUsersEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
