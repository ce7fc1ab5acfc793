// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEmail is returned by UserRepository.Create when the email is
// already registered. Adapters translate their native uniqueness errors into
// this value.
var ErrDuplicateEmail = errors.New("email already registered")

// User represents a registered account.
//
// PasswordHash is intentionally excluded from JSON; handlers expose users
// through PublicUser instead.
type User struct {
	ID            int64
	Email         string
	Username      string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
}

// PublicUser is the projection of a User that is safe to return to clients.
type PublicUser struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	EmailVerified bool   `json:"emailVerified"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		EmailVerified: u.EmailVerified,
	}
}

// Session represents an active login session. The token doubles as the
// primary key; the record is never mutated after creation. Cookie-side
// sliding renewal does not extend ExpiresAt.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// EmailVerificationRequest is a pending email-verification code. At most one
// live request exists per user; Replace enforces that.
type EmailVerificationRequest struct {
	ID        string
	UserID    int64
	Email     string
	Code      string
	ExpiresAt time.Time
}

// PasswordResetSession is a pending password-reset code. The code doubles as
// the row ID. Verified is reserved and currently unused.
type PasswordResetSession struct {
	ID        string
	UserID    int64
	Email     string
	Code      string
	ExpiresAt time.Time
	Verified  bool
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, email, username, passwordHash string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetPasswordHash(ctx context.Context, id int64) (string, error)
	SetEmailVerified(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// SessionRepository defines the port for session persistence operations.
// GetByToken returns (nil, nil) when no session matches.
type SessionRepository interface {
	Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

// EmailVerificationRepository defines the port for verification codes.
//
// Replace atomically swaps out any existing request for the same user, so the
// at-most-one-live-code invariant holds even under concurrent requests.
type EmailVerificationRepository interface {
	Replace(ctx context.Context, req EmailVerificationRequest) error
	FindByUserAndCode(ctx context.Context, userID int64, code string) (*EmailVerificationRequest, error)
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// PasswordResetRepository defines the port for password-reset codes, with the
// same atomic Replace semantics as EmailVerificationRepository.
type PasswordResetRepository interface {
	Replace(ctx context.Context, reset PasswordResetSession) error
	FindByCode(ctx context.Context, code string) (*PasswordResetSession, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// Notifier delivers verification and reset codes out of band. Implementations
// are fire-and-forget from the caller's perspective; a returned error is
// logged by the caller, never surfaced to the end user.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, address, code, displayName string) error
	SendPasswordResetEmail(ctx context.Context, address, code, displayName string) error
}
