package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rookpress/bookstall/internal/auth"
	"github.com/rookpress/bookstall/internal/store"
)

type AuthHandler struct {
	auth   *auth.Service
	tokens TokenSource
	logger *slog.Logger
}

func NewAuthHandler(a *auth.Service, tokens TokenSource, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, tokens: tokens, logger: logger}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignUp registers a new user.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.auth.Register(req.Email, req.Password, req.Name)
	if errors.Is(err, auth.ErrDuplicateEmail) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		h.logger.Error("register", "error", err)
		writeError(w, http.StatusInternalServerError, "unable to create account")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn verifies credentials, issues a session, and stores its token.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, sess, err := h.auth.Authenticate(req.Email, req.Password)
	if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
		// Same reply for both so responses don't reveal which emails exist.
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		writeError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	h.tokens.Store(w, sess.Token, store.SessionTTL)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"expires_at": sess.ExpiresAt,
	})
}

// SignOut revokes the current session, if any, and clears the stored token.
// Signing out twice is harmless.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if token := h.tokens.Token(r); token != "" {
		if err := h.auth.Revoke(token); err != nil {
			h.logger.Error("revoke session", "error", err)
		}
	}
	h.tokens.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me reports the signed-in user. Anonymous is a normal answer, not an error.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": UserFromContext(r.Context())})
}
