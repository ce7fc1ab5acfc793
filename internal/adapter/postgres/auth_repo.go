// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"campusauth/internal/domain"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for duplicate unique keys.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Create inserts a new user, reporting domain.ErrDuplicateEmail when the
// email is already taken.
func (d *DB) Create(ctx context.Context, email, username, passwordHash string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (email, username, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id, email, username, password_hash, email_verified, created_at",
		email, username, passwordHash, time.Now(),
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt)
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, username, password_hash, email_verified, created_at FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, username, password_hash, email_verified, created_at FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetPasswordHash returns the stored password hash for the user.
func (d *DB) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := d.sql.QueryRowContext(ctx,
		"SELECT password_hash FROM users WHERE id = $1", id,
	).Scan(&hash)
	return hash, err
}

// SetEmailVerified flips the user's verified flag. The flag only ever moves
// false to true.
func (d *DB) SetEmailVerified(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE users SET email_verified = TRUE WHERE id = $1", id)
	return err
}

// UpdatePasswordHash replaces the user's password hash.
func (d *DB) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, id)
	return err
}

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		token, userID, expiresAt, time.Now(),
	)
	return err
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1",
		token,
	).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now())
	return err
}

// EmailVerificationRepo implements verification-code storage on DB.
type EmailVerificationRepo struct {
	db *DB
}

// NewEmailVerificationRepo wraps a DB as an EmailVerificationRepository.
func NewEmailVerificationRepo(db *DB) *EmailVerificationRepo {
	return &EmailVerificationRepo{db: db}
}

// Replace upserts the user's verification request. The unique constraint on
// user_id makes this atomic against concurrent replacements.
func (r *EmailVerificationRepo) Replace(ctx context.Context, req domain.EmailVerificationRequest) error {
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO email_verification_requests (id, user_id, email, code, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET id = EXCLUDED.id, email = EXCLUDED.email, code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`,
		req.ID, req.UserID, req.Email, req.Code, req.ExpiresAt,
	)
	return err
}

// FindByUserAndCode retrieves a verification request by owner and code.
func (r *EmailVerificationRepo) FindByUserAndCode(ctx context.Context, userID int64, code string) (*domain.EmailVerificationRequest, error) {
	var req domain.EmailVerificationRequest
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, email, code, expires_at FROM email_verification_requests WHERE user_id = $1 AND code = $2",
		userID, code,
	).Scan(&req.ID, &req.UserID, &req.Email, &req.Code, &req.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// DeleteAllForUser removes every verification request owned by the user.
func (r *EmailVerificationRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	_, err := r.db.sql.ExecContext(ctx,
		"DELETE FROM email_verification_requests WHERE user_id = $1", userID)
	return err
}

// PasswordResetRepo implements reset-code storage on DB.
type PasswordResetRepo struct {
	db *DB
}

// NewPasswordResetRepo wraps a DB as a PasswordResetRepository.
func NewPasswordResetRepo(db *DB) *PasswordResetRepo {
	return &PasswordResetRepo{db: db}
}

// Replace upserts the user's reset session, same atomicity as verification
// requests.
func (r *PasswordResetRepo) Replace(ctx context.Context, reset domain.PasswordResetSession) error {
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO password_reset_sessions (id, user_id, email, code, expires_at, verified)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE
		 SET id = EXCLUDED.id, email = EXCLUDED.email, code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, verified = EXCLUDED.verified`,
		reset.ID, reset.UserID, reset.Email, reset.Code, reset.ExpiresAt, reset.Verified,
	)
	return err
}

// FindByCode retrieves a reset session by code alone.
func (r *PasswordResetRepo) FindByCode(ctx context.Context, code string) (*domain.PasswordResetSession, error) {
	var reset domain.PasswordResetSession
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, email, code, expires_at, verified FROM password_reset_sessions WHERE code = $1",
		code,
	).Scan(&reset.ID, &reset.UserID, &reset.Email, &reset.Code, &reset.ExpiresAt, &reset.Verified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// DeleteByID removes a reset session by primary key.
func (r *PasswordResetRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.sql.ExecContext(ctx,
		"DELETE FROM password_reset_sessions WHERE id = $1", id)
	return err
}

// DeleteAllForUser removes every reset session owned by the user.
func (r *PasswordResetRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	_, err := r.db.sql.ExecContext(ctx,
		"DELETE FROM password_reset_sessions WHERE user_id = $1", userID)
	return err
}
