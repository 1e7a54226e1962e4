// Package handler exposes the user directory over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fitness-gateway/internal/directory/domain"
	"fitness-gateway/internal/directory/service"
	"fitness-gateway/internal/identity"
)

// UserResponse is the wire shape of a directory user. The password hash
// never leaves the service.
type UserResponse struct {
	ID         string    `json:"id"`
	KeycloakID string    `json:"keyCloakId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Handler serves the directory API consumed by the gateway.
type Handler struct {
	svc *service.Service
}

// New returns a Handler backed by the given service.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the directory API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/api/users/register", h.register)
	r.Get("/api/users/{userID}/validate", h.validate)
	r.Get("/api/users/{userID}", h.profile)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed registration payload", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrKeycloakIDRequired),
			errors.Is(err, service.ErrEmailRequired),
			errors.Is(err, service.ErrDuplicateIdentity):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("directory: register failed: %v", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	keycloakID := chi.URLParam(r, "userID")
	exists, err := h.svc.Exists(r.Context(), keycloakID)
	if err != nil {
		log.Printf("directory: validate failed: %v", err)
		http.Error(w, "validation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, exists)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	user, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Printf("directory: profile lookup failed: %v", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(user))
}

func toResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		KeycloakID: u.KeycloakID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("directory: write response: %v", err)
	}
}
