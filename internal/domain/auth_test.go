package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserPublicProjection(t *testing.T) {
	u := &User{
		ID:            42,
		Email:         "ada@campus.edu",
		Username:      "ada",
		PasswordHash:  "$2a$10$secret",
		EmailVerified: true,
	}

	pub := u.Public()
	if pub.ID != 42 || pub.Email != "ada@campus.edu" || pub.Username != "ada" || !pub.EmailVerified {
		t.Errorf("projection lost fields: %+v", pub)
	}

	raw, err := json.Marshal(pub)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "secret") || strings.Contains(strings.ToLower(string(raw)), "hash") {
		t.Errorf("serialized projection leaks credentials: %s", raw)
	}
	for _, key := range []string{`"id"`, `"email"`, `"username"`, `"emailVerified"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("missing %s in %s", key, raw)
		}
	}
}
