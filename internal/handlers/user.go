package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sadbytecom/couplex/internal/middleware"
	"github.com/sadbytecom/couplex/internal/models"
	"github.com/sadbytecom/couplex/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// AuthResponse is returned from registration and login.
type AuthResponse struct {
	models.User
	Token string `json:"token"`
}

// CreateUserRequest is the registration request body.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Register(ctx, req.Username)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user")
		respondDomainError(w, err)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("code", user.UniqueCode).
		Msg("User created")

	respondJSON(w, http.StatusOK, AuthResponse{User: *user, Token: token})
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Code string `json:"code"`
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.LoginByCode(ctx, req.Code)
	if err != nil {
		log.Warn().Err(err).Msg("Login failed")
		respondDomainError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")

	respondJSON(w, http.StatusOK, AuthResponse{User: *user, Token: token})
}

// RenameRequest is the username-change request body.
type RenameRequest struct {
	Username string `json:"username"`
}

// Rename handles PATCH /api/v1/users
func (h *UserHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.Rename(ctx, userID, req.Username); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to rename user")
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterDeviceRequest is the push-token registration body.
type RegisterDeviceRequest struct {
	PushToken string `json:"push_token"`
}

// RegisterDevice handles PUT /api/v1/devices
func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.RegisterPushToken(ctx, userID, req.PushToken); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register push token")
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
