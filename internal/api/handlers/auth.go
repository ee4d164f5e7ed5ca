package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tutor-app/internal/api/response"
	"tutor-app/internal/auth"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
	"tutor-app/pkg/validation"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string   `json:"token"`
	User  *db.User `json:"user,omitempty"`
}

// AuthHandlers serves registration and login
type AuthHandlers struct {
	auth      *auth.Service
	validator *validation.AuthRequestValidator
}

// NewAuthHandlers creates a new AuthHandlers
func NewAuthHandlers(service *auth.Service) *AuthHandlers {
	return &AuthHandlers{auth: service, validator: validation.NewAuthRequestValidator()}
}

// RegisterHandler creates an account and returns a token for it
func (ah *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := ah.validator.ValidateRegisterRequest(req.Username, req.Password); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid registration data", err)
		return
	}

	user, token, err := ah.auth.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrTokensDisabled):
		response.Error(w, http.StatusServiceUnavailable, "Authentication is not configured", err)
		return
	case errors.Is(err, db.ErrUserExists):
		response.Error(w, http.StatusConflict, "Username already taken", err)
		return
	case err != nil:
		logger.Log.WithError(err).Error("Error registering user")
		response.Error(w, http.StatusInternalServerError, "Failed to register user", err)
		return
	}

	response.JSON(w, http.StatusCreated, TokenResponse{Token: token, User: user})
}

// LoginHandler exchanges credentials for a token
func (ah *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := ah.validator.ValidateLoginRequest(req.Username, req.Password); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid login data", err)
		return
	}

	token, err := ah.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrTokensDisabled):
		response.Error(w, http.StatusServiceUnavailable, "Authentication is not configured", err)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	case err != nil:
		logger.Log.WithError(err).Error("Error logging in")
		response.Error(w, http.StatusInternalServerError, "Failed to log in", err)
		return
	}

	response.JSON(w, http.StatusOK, TokenResponse{Token: token})
}
