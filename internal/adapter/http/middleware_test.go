package adapthttp

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testServer(cfg Config) *Server {
	return New(nil, cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func guardedOK(s *Server) http.Handler {
	return s.sessionCookieGuard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestGuard_RefreshesCookieOnGet(t *testing.T) {
	s := testServer(Config{SecureCookies: true, CookieTTL: 30 * 24 * time.Hour})
	h := guardedOK(s)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "abc123"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one refreshed cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "session" || c.Value != "abc123" {
		t.Errorf("unexpected cookie %q=%q", c.Name, c.Value)
	}
	if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode || !c.Secure {
		t.Errorf("cookie attributes wrong: %+v", c)
	}
	if c.MaxAge != int((30*24*time.Hour)/time.Second) {
		t.Errorf("expected 30-day sliding window, got MaxAge=%d", c.MaxAge)
	}
}

func TestGuard_NoCookieNoRefresh(t *testing.T) {
	s := testServer(Config{CookieTTL: time.Hour})
	h := guardedOK(s)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if len(w.Result().Cookies()) != 0 {
		t.Error("no cookie should be set when none was presented")
	}
}

func TestGuard_RejectsCrossOriginMutation(t *testing.T) {
	s := testServer(Config{})
	h := guardedOK(s)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Host = "api.example.com"
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestGuard_AllowsMatchingOrigin(t *testing.T) {
	s := testServer(Config{})
	h := guardedOK(s)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Host = "api.example.com"
	req.Header.Set("Origin", "https://api.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestGuard_MissingOriginOrHost(t *testing.T) {
	s := testServer(Config{})
	h := guardedOK(s)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Host = "api.example.com"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 without Origin, got %d", w.Code)
	}
}

func TestGuard_UnparsableOrigin(t *testing.T) {
	s := testServer(Config{})
	h := guardedOK(s)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Host = "api.example.com"
	req.Header.Set("Origin", "::not a url::")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unparsable origin, got %d", w.Code)
	}
}

func TestGuard_AllowListedOrigin(t *testing.T) {
	s := testServer(Config{AllowedOrigins: []string{"http://localhost:5173"}})
	h := guardedOK(s)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Host = "api.example.com"
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected allow-listed origin to pass, got %d", w.Code)
	}
}

func TestGuard_HealthExempt(t *testing.T) {
	s := testServer(Config{})
	h := guardedOK(s)

	// No Origin header, mutating method: would normally be rejected.
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected health to bypass the guard, got %d", w.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s := New(nil, Config{}, slog.New(slog.NewTextHandler(&buf, nil)))

	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test-path", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "GET") || !strings.Contains(logOutput, "/test-path") || !strings.Contains(logOutput, "418") {
		t.Errorf("log output missing expected fields. Got: %s", logOutput)
	}
}
