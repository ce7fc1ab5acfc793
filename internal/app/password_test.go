package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPasswordGateway_HashVerify(t *testing.T) {
	g := NewPasswordGateway("", nil)

	hash, err := g.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}

	ok, err := g.Verify(hash, "hunter2hunter2")
	if err != nil || !ok {
		t.Errorf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = g.Verify(hash, "wrong-password")
	if err != nil {
		t.Errorf("mismatch must not error, got %v", err)
	}
	if ok {
		t.Error("expected mismatch")
	}
}

func TestPasswordGateway_VerifyMalformedHash(t *testing.T) {
	g := NewPasswordGateway("", nil)

	if _, err := g.Verify("not-a-bcrypt-hash", "pw"); err == nil {
		t.Error("expected an error for a corrupt stored hash")
	}
}

func TestScreenBreach_CleanPassword(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("0018A45C4D1DEF81644B54AB7F969B88D65:4\r\nFFFFFF4C4D1DEF81644B54AB7F969B88D65:1\r\n"))
	}))
	defer srv.Close()

	g := NewPasswordGateway(srv.URL, srv.Client())
	if err := g.ScreenBreach(context.Background(), "uncompromised-passphrase"); err != nil {
		t.Fatalf("expected clean, got %v", err)
	}

	// Only a 5-char prefix may leave the process.
	prefix := strings.TrimPrefix(gotPath, "/")
	if len(prefix) != 5 {
		t.Errorf("expected a 5-char prefix lookup, got %q", prefix)
	}
}

func TestScreenBreach_FoundSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// SHA-1("password123") = CBFDA C6008F9CAB4083784CBD1874F76618D2A97
		_, _ = w.Write([]byte("0018A45C4D1DEF81644B54AB7F969B88D65:4\r\nC6008F9CAB4083784CBD1874F76618D2A97:99\r\n"))
	}))
	defer srv.Close()

	g := NewPasswordGateway(srv.URL, srv.Client())
	if err := g.ScreenBreach(context.Background(), "password123"); err != ErrPasswordCompromised {
		t.Errorf("expected ErrPasswordCompromised, got %v", err)
	}
}

func TestScreenBreach_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewPasswordGateway(srv.URL, srv.Client())
	err := g.ScreenBreach(context.Background(), "whatever")
	if !errors.Is(err, ErrBreachCheckUnavailable) {
		t.Errorf("expected ErrBreachCheckUnavailable, got %v", err)
	}
}

func TestScreenBreach_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // reject all connections

	g := NewPasswordGateway(srv.URL, nil)
	err := g.ScreenBreach(context.Background(), "whatever")
	if !errors.Is(err, ErrBreachCheckUnavailable) {
		t.Errorf("expected ErrBreachCheckUnavailable, got %v", err)
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 32; i++ {
		code, err := generateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if !otpPattern.MatchString(code) {
			t.Fatalf("expected 6 digits, got %q", code)
		}
	}
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		tok, err := generateSessionToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(tok) != 32 {
			t.Fatalf("expected 32 hex chars, got %d", len(tok))
		}
		if seen[tok] {
			t.Fatal("token repeated")
		}
		seen[tok] = true
	}
}
