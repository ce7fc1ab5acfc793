// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"campusauth/internal/domain"
)

// DB implements an in-memory database storage. All repositories share its
// mutex, so Replace is atomic here the same way the Postgres upsert is.
type DB struct {
	mu            sync.Mutex
	users         []*domain.User
	sessions      map[string]*domain.Session
	verifications map[int64]*domain.EmailVerificationRequest
	resets        map[int64]*domain.PasswordResetSession

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions:      make(map[string]*domain.Session),
		verifications: make(map[int64]*domain.EmailVerificationRequest),
		resets:        make(map[int64]*domain.PasswordResetSession),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)
var _ domain.EmailVerificationRepository = (*VerificationRepo)(nil)
var _ domain.PasswordResetRepository = (*ResetRepo)(nil)

// --- UserRepository ---

// Create adds a user, enforcing email uniqueness.
func (db *DB) Create(ctx context.Context, email, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return nil, domain.ErrDuplicateEmail
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	db.users = append(db.users, u)

	ret := *u
	return &ret, nil
}

// GetByEmail returns the user with the given email, or nil.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			ret := *u
			return &ret, nil
		}
	}
	return nil, nil
}

// GetByID returns the user with the given ID, or nil.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			ret := *u
			return &ret, nil
		}
	}
	return nil, nil
}

// GetPasswordHash returns the stored hash for the user.
func (db *DB) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u.PasswordHash, nil
		}
	}
	return "", errors.New("user not found")
}

// SetEmailVerified marks the user as verified.
func (db *DB) SetEmailVerified(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.EmailVerified = true
			return nil
		}
	}
	return nil
}

// UpdatePasswordHash replaces the user's password hash.
func (db *DB) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return nil
}

// --- SessionRepository ---

// SessionRepo implements session storage on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

// GetByToken returns the session with the given token, or nil.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return nil, nil
	}
	ret := *s
	return &ret, nil
}

// Delete removes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired removes all sessions past their expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	for token, s := range r.db.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.db.sessions, token)
		}
	}
	return nil
}

// --- EmailVerificationRepository ---

// VerificationRepo implements verification-code storage on DB.
type VerificationRepo struct {
	db *DB
}

// NewVerificationRepo wraps a DB as an EmailVerificationRepository.
func NewVerificationRepo(db *DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Replace swaps out any existing request for the user under the shared lock.
func (r *VerificationRepo) Replace(ctx context.Context, req domain.EmailVerificationRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := req
	r.db.verifications[req.UserID] = &cp
	return nil
}

// FindByUserAndCode returns the user's request when the code matches, or nil.
func (r *VerificationRepo) FindByUserAndCode(ctx context.Context, userID int64, code string) (*domain.EmailVerificationRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req, ok := r.db.verifications[userID]
	if !ok || req.Code != code {
		return nil, nil
	}
	ret := *req
	return &ret, nil
}

// DeleteAllForUser removes the user's pending request.
func (r *VerificationRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.verifications, userID)
	return nil
}

// --- PasswordResetRepository ---

// ResetRepo implements reset-code storage on DB.
type ResetRepo struct {
	db *DB
}

// NewResetRepo wraps a DB as a PasswordResetRepository.
func NewResetRepo(db *DB) *ResetRepo {
	return &ResetRepo{db: db}
}

// Replace swaps out any existing reset session for the user.
func (r *ResetRepo) Replace(ctx context.Context, reset domain.PasswordResetSession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := reset
	r.db.resets[reset.UserID] = &cp
	return nil
}

// FindByCode returns the reset session with the given code, or nil.
func (r *ResetRepo) FindByCode(ctx context.Context, code string) (*domain.PasswordResetSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, reset := range r.db.resets {
		if reset.Code == code {
			ret := *reset
			return &ret, nil
		}
	}
	return nil, nil
}

// DeleteByID removes a reset session by its ID.
func (r *ResetRepo) DeleteByID(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for userID, reset := range r.db.resets {
		if reset.ID == id {
			delete(r.db.resets, userID)
		}
	}
	return nil
}

// DeleteAllForUser removes the user's pending reset session.
func (r *ResetRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.resets, userID)
	return nil
}
