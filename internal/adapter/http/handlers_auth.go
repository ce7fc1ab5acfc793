// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"errors"
	"net/http"

	"campusauth/internal/app"
	"campusauth/internal/domain"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "registered, verification code sent",
		"user":    user,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	// Distinct kinds internally, one external message: answering "no such
	// account" differently from "wrong password" would let callers probe
	// which emails are registered.
	if errors.Is(err, app.ErrUserNotFound) || errors.Is(err, app.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "logged in",
		"user":    user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.log.Error("logout failed", "err", err)
		}
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		UserID int64  `json:"userId"`
		Code   string `json:"code"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := s.auth.VerifyEmailByCode(r.Context(), req.UserID, req.Code); err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "email verified"})
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		UserID int64 `json:"userId"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := s.auth.ResendVerification(r.Context(), req.UserID); err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "verification code sent"})
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "reset code sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := s.auth.ResetPassword(r.Context(), req.Code, req.NewPassword); err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "password reset"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(userContextKey).(*domain.User)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

// writeAuthError maps service errors onto stable status codes and messages.
// Anything unmapped is an internal failure and stays opaque to the client.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid email address")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, app.ErrPasswordCompromised):
		writeError(w, http.StatusBadRequest, "password appears in a known data breach, choose another")
	case errors.Is(err, app.ErrBreachCheckUnavailable):
		writeError(w, http.StatusServiceUnavailable, "password screening unavailable, try again later")
	case errors.Is(err, app.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, app.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, "email not verified")
	case errors.Is(err, app.ErrAlreadyVerified):
		writeError(w, http.StatusConflict, "email already verified")
	case errors.Is(err, app.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid or expired code")
	case errors.Is(err, app.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, "code expired")
	default:
		s.log.Error("auth request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
