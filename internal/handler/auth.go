// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/leaseiq/leaseiq/internal/auth"
	"github.com/leaseiq/leaseiq/internal/middleware"
	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/store"
	"github.com/leaseiq/leaseiq/pkg/logger"
	"github.com/leaseiq/leaseiq/pkg/metrics"
)

// UserStore is the persistence surface the auth handler needs.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, string, error)
}

// AuthHandler handles signup and login.
type AuthHandler struct {
	users    UserStore
	secret   string
	tokenTTL time.Duration
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users UserStore, secret string, tokenTTL time.Duration, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   log,
	}
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "password cannot be empty")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Signup error")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name, req.Email, hash)
	if errors.Is(err, store.ErrDuplicateEmail) {
		metrics.RecordAuthAttempt("signup", "duplicate")
		writeMessage(w, http.StatusBadRequest, "User already exists.")
		return
	}
	if err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		metrics.RecordAuthAttempt("signup", "error")
		writeMessage(w, http.StatusInternalServerError, "Signup error")
		return
	}

	token, err := auth.IssueToken(h.secret, user.ID, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Signup error")
		return
	}

	metrics.RecordAuthAttempt("signup", "success")
	writeJSON(w, http.StatusCreated, model.AuthResponse{Token: token, User: *user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, hash, err := h.users.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !auth.CheckPassword(hash, req.Password)) {
		metrics.RecordAuthAttempt("login", "rejected")
		writeMessage(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch user", zap.Error(err))
		metrics.RecordAuthAttempt("login", "error")
		writeMessage(w, http.StatusInternalServerError, "Login error")
		return
	}

	token, err := auth.IssueToken(h.secret, user.ID, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Login error")
		return
	}

	metrics.RecordAuthAttempt("login", "success")
	writeJSON(w, http.StatusOK, model.AuthResponse{Token: token, User: *user})
}
