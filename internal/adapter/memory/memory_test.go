package memory

import (
	"context"
	"testing"
	"time"

	"campusauth/internal/domain"
)

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "ada@campus.edu", "ada", "hash1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if u.EmailVerified {
		t.Error("new user should start unverified")
	}

	// Duplicate email rejected
	if _, err := db.Create(ctx, "ada@campus.edu", "other", "hash2"); err != domain.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	// Lookups
	got, err := db.GetByEmail(ctx, "ada@campus.edu")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByEmail: got %v, err %v", got, err)
	}
	missing, err := db.GetByEmail(ctx, "nobody@campus.edu")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown email, got %v, err %v", missing, err)
	}

	hash, err := db.GetPasswordHash(ctx, u.ID)
	if err != nil || hash != "hash1" {
		t.Errorf("GetPasswordHash: got %q, err %v", hash, err)
	}
	if _, err := db.GetPasswordHash(ctx, 999); err == nil {
		t.Error("expected error for unknown user")
	}

	// Mutations
	if err := db.SetEmailVerified(ctx, u.ID); err != nil {
		t.Fatalf("SetEmailVerified: %v", err)
	}
	got, _ = db.GetByID(ctx, u.ID)
	if !got.EmailVerified {
		t.Error("SetEmailVerified did not stick")
	}

	if err := db.UpdatePasswordHash(ctx, u.ID, "hash3"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}
	hash, _ = db.GetPasswordHash(ctx, u.ID)
	if hash != "hash3" {
		t.Errorf("expected updated hash, got %q", hash)
	}

	// Returned users are copies: mutating one must not touch the store.
	got.Username = "mallory"
	again, _ := db.GetByID(ctx, u.ID)
	if again.Username != "ada" {
		t.Error("GetByID returned a shared pointer")
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := NewSessionRepo(db)
	ctx := context.Background()

	if err := repo.Create(ctx, "tok1", 1, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, "tok2", 1, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s, err := repo.GetByToken(ctx, "tok1")
	if err != nil || s == nil || s.UserID != 1 {
		t.Fatalf("GetByToken: got %v, err %v", s, err)
	}
	missing, err := repo.GetByToken(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown token, got %v, err %v", missing, err)
	}

	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if s, _ := repo.GetByToken(ctx, "tok2"); s != nil {
		t.Error("expired session survived DeleteExpired")
	}
	if s, _ := repo.GetByToken(ctx, "tok1"); s == nil {
		t.Error("live session removed by DeleteExpired")
	}

	if err := repo.Delete(ctx, "tok1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s, _ := repo.GetByToken(ctx, "tok1"); s != nil {
		t.Error("session survived Delete")
	}
}

func TestVerificationRepositoryReplace(t *testing.T) {
	db := New()
	repo := NewVerificationRepo(db)
	ctx := context.Background()

	first := domain.EmailVerificationRequest{
		ID: "req-1", UserID: 1, Email: "ada@campus.edu",
		Code: "111111", ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	if err := repo.Replace(ctx, first); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	second := first
	second.ID, second.Code = "req-2", "222222"
	if err := repo.Replace(ctx, second); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// At most one request per user: the old code is dead.
	if req, _ := repo.FindByUserAndCode(ctx, 1, "111111"); req != nil {
		t.Error("superseded code still resolves")
	}
	req, err := repo.FindByUserAndCode(ctx, 1, "222222")
	if err != nil || req == nil || req.ID != "req-2" {
		t.Fatalf("FindByUserAndCode: got %v, err %v", req, err)
	}

	// Wrong user sees nothing.
	if req, _ := repo.FindByUserAndCode(ctx, 2, "222222"); req != nil {
		t.Error("code resolved for the wrong user")
	}

	if err := repo.DeleteAllForUser(ctx, 1); err != nil {
		t.Fatalf("DeleteAllForUser: %v", err)
	}
	if req, _ := repo.FindByUserAndCode(ctx, 1, "222222"); req != nil {
		t.Error("request survived DeleteAllForUser")
	}
}

func TestResetRepository(t *testing.T) {
	db := New()
	repo := NewResetRepo(db)
	ctx := context.Background()

	first := domain.PasswordResetSession{
		ID: "111111", UserID: 1, Email: "ada@campus.edu",
		Code: "111111", ExpiresAt: time.Now().Add(15 * time.Minute),
	}
	if err := repo.Replace(ctx, first); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	second := first
	second.ID, second.Code = "222222", "222222"
	if err := repo.Replace(ctx, second); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if r, _ := repo.FindByCode(ctx, "111111"); r != nil {
		t.Error("superseded reset code still resolves")
	}
	r, err := repo.FindByCode(ctx, "222222")
	if err != nil || r == nil || r.UserID != 1 {
		t.Fatalf("FindByCode: got %v, err %v", r, err)
	}

	if err := repo.DeleteByID(ctx, "222222"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if r, _ := repo.FindByCode(ctx, "222222"); r != nil {
		t.Error("reset session survived DeleteByID")
	}
}
