package adapthttp

import (
	"log/slog"
	"net/http"
	"time"

	"campusauth/internal/app"
)

// Config carries the HTTP-facing policy knobs.
type Config struct {
	// SecureCookies marks session cookies Secure; on in production.
	SecureCookies bool
	// AllowedOrigins is an optional allow-list of exact Origin values for
	// deployments where the API is served from a different host than the
	// frontend. An Origin matching the Host header is always accepted.
	AllowedOrigins []string
	// CookieTTL is the sliding window re-applied to the session cookie on
	// each safe request.
	CookieTTL time.Duration
	// WebDir is the directory holding the SPA build.
	WebDir string
}

// DefaultConfig returns the production cookie policy: secure cookies with a
// 30-day sliding window.
func DefaultConfig(webDir string) Config {
	return Config{
		SecureCookies: true,
		CookieTTL:     30 * 24 * time.Hour,
		WebDir:        webDir,
	}
}

// Server is the driving HTTP adapter that routes requests to the auth
// service.
type Server struct {
	auth *app.AuthService
	cfg  Config
	log  *slog.Logger
}

// New creates a Server wired to the given auth service.
func New(auth *app.AuthService, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{auth: auth, cfg: cfg, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/register", s.handleRegister)
	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/verify-email", s.handleVerifyEmail)
	api.HandleFunc("/auth/resend-verification", s.handleResendVerification)
	api.HandleFunc("/auth/request-password-reset", s.handleRequestPasswordReset)
	api.HandleFunc("/auth/reset-password", s.handleResetPassword)
	api.Handle("/auth/me", s.requireSession(http.HandlerFunc(s.handleMe)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", s.sessionCookieGuard(api)))
	root.Handle("/", spaFromDisk(s.cfg.WebDir))

	return s.loggingMiddleware(withNoCache(root))
}
