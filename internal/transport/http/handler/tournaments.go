package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tourney-api/internal/application/tournament"
	"github.com/tourney-api/internal/domain"
	s3infra "github.com/tourney-api/internal/infrastructure/s3"
	"github.com/tourney-api/internal/transport/http/middleware"
)

const maxBannerBytes = 5 << 20 // 5 MiB

// TournamentHandler handles tournament and enrollment endpoints.
type TournamentHandler struct {
	svc *tournament.Service
}

func NewTournamentHandler(svc *tournament.Service) *TournamentHandler {
	return &TournamentHandler{svc: svc}
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create registers a tournament. Admin only.
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update edits a tournament. Admin only.
func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UploadBanner accepts a multipart banner image. Admin only.
func (h *TournamentHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBannerBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("banner")
	if err != nil {
		writeError(w, http.StatusBadRequest, "banner file required")
		return
	}
	defer file.Close()

	t, err := h.svc.UploadBanner(r.Context(), chi.URLParam(r, "id"),
		header.Filename, file, s3infra.DetectContentType(header.Filename))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Enroll joins the caller to the tournament.
func (h *TournamentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	e, err := h.svc.Enroll(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ListMine returns the caller's enrollments.
func (h *TournamentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	es, err := h.svc.ListMine(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, es)
}

// ListPlayers returns the roster. Admin only.
func (h *TournamentHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	es, err := h.svc.ListPlayers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, es)
}
