package app

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordCompromised indicates the candidate password appears in the
	// breach corpus.
	ErrPasswordCompromised = errors.New("password found in breach corpus")
	// ErrBreachCheckUnavailable indicates the breach corpus could not be
	// queried. Callers fail closed on this error.
	ErrBreachCheckUnavailable = errors.New("breach check unavailable")
)

// DefaultBreachEndpoint is the Have I Been Pwned range API.
const DefaultBreachEndpoint = "https://api.pwnedpasswords.com/range"

// PasswordGateway hashes and verifies passwords and screens candidates
// against a breach corpus using k-anonymity range queries: only the first
// five hex characters of the SHA-1 leave the process.
type PasswordGateway struct {
	endpoint string
	client   *http.Client
}

// NewPasswordGateway creates a gateway querying the given range endpoint. A
// nil client gets a default with a 5s timeout; every screen call is bounded
// by that timeout in addition to its context.
func NewPasswordGateway(endpoint string, client *http.Client) *PasswordGateway {
	if endpoint == "" {
		endpoint = DefaultBreachEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &PasswordGateway{endpoint: endpoint, client: client}
}

// Hash derives a bcrypt hash from the password.
func (g *PasswordGateway) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether password matches the stored hash. A mismatch is
// (false, nil); an error means the stored hash is malformed.
func (g *PasswordGateway) Verify(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// ScreenBreach reports whether the password is safe to use. It returns
// ErrPasswordCompromised when the password's hash suffix appears among the
// range matches, and ErrBreachCheckUnavailable when the corpus cannot be
// queried: an unverifiable password is treated as unsafe, never allowed
// through.
func (g *PasswordGateway) ScreenBreach(ctx context.Context, password string) error {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:5], digest[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"/"+prefix, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBreachCheckUnavailable, err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBreachCheckUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrBreachCheckUnavailable, resp.StatusCode)
	}

	// Response is one "SUFFIX:COUNT" pair per line, all sharing our prefix.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		candidate, _, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.EqualFold(candidate, suffix) {
			return ErrPasswordCompromised
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBreachCheckUnavailable, err)
	}
	return nil
}
