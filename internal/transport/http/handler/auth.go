package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tourney-api/internal/application/auth"
	"github.com/tourney-api/internal/application/otp"
)

// AuthHandler handles the public OTP endpoints and admin login.
type AuthHandler struct {
	otpSvc  otp.Service
	authSvc *auth.Service
}

func NewAuthHandler(otpSvc otp.Service, authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{otpSvc: otpSvc, authSvc: authSvc}
}

// SendOTP issues a fresh code to the recipient.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, OTPEnvelope{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.otpSvc.Request(r.Context(), req.Recipient); err != nil {
		otpError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, OTPEnvelope{Success: true})
}

// VerifyOTP checks the submitted code and, on success, returns the login
// artifacts (token pair + user).
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string `json:"recipient"`
		Code      string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, OTPEnvelope{Success: false, Error: "invalid request body"})
		return
	}
	result, vres, err := h.authSvc.VerifyOTPLogin(r.Context(), req.Recipient, req.Code)
	if err != nil {
		otpError(w, err, vres)
		return
	}
	result.User.PasswordHash = ""
	writeJSON(w, http.StatusOK, OTPEnvelope{
		Success:      true,
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
		User:         result.User,
		IsNewUser:    &result.IsNewUser,
	})
}

// AdminLogin authenticates an admin account with email and password.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}
	result, err := h.authSvc.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	result.User.PasswordHash = ""
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}
