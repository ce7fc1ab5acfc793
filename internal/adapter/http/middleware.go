package adapthttp

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"campusauth/internal/app"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookieName = "session"

// isSafeMethod reports whether the method cannot change server state and so
// skips the origin check.
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// sessionCookieGuard refreshes the session cookie on safe requests and
// enforces the Origin/Host CSRF check on mutating ones. Health checks are
// exempt from both.
//
// The refresh is cookie-only: the stored session keeps its original absolute
// expiry, so a client can hold a live cookie for a session the store has
// already let lapse. ValidateSession catches that case.
func (s *Server) sessionCookieGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if isSafeMethod(r.Method) {
			if cookie, err := r.Cookie(sessionCookieName); err == nil {
				s.setSessionCookie(w, cookie.Value)
			}
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" || r.Host == "" {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if !s.originAllowed(origin, r.Host) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowed accepts an Origin whose host matches the request's Host
// header, or one listed verbatim in the configured allow-list. Browsers
// cannot forge a matching Origin cross-site, which is the whole defense.
func (s *Server) originAllowed(origin, host string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == host
}

// setSessionCookie (re-)issues the session cookie with a fresh sliding
// window and the hardened attribute set.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.SecureCookies,
		MaxAge:   int(s.cfg.CookieTTL / time.Second),
	})
}

// clearSessionCookie expires the session cookie immediately.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.SecureCookies,
		MaxAge:   -1,
	})
}

// requireSession resolves the session cookie to a user and stores it on the
// request context, rejecting the request when no valid session exists.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := s.auth.ValidateSession(r.Context(), cookie.Value)
		if err == app.ErrSessionNotFound || err == app.ErrSessionExpired {
			s.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware records method, path, status, and duration per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
