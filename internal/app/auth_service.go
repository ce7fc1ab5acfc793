// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"campusauth/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrInvalidEmail indicates the supplied email fails basic syntax checks.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates no account matches the given email or id.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailNotVerified blocks login until the address is verified.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAlreadyVerified indicates the account needs no further verification.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrInvalidCode indicates a missing, wrong, or already-consumed code.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrCodeExpired indicates the reset code's deadline has passed.
	ErrCodeExpired = errors.New("code expired")
	// ErrSessionNotFound indicates the session token matches nothing.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session has passed its absolute expiry.
	ErrSessionExpired = errors.New("session expired")
)

// AuthConfig carries the expiry windows for the artifacts the service issues.
type AuthConfig struct {
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// DefaultAuthConfig returns the production expiry windows: 7-day sessions,
// 10-minute verification codes, 15-minute reset codes.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		SessionTTL:      7 * 24 * time.Hour,
		VerificationTTL: 10 * time.Minute,
		ResetTTL:        15 * time.Minute,
	}
}

// AuthService orchestrates registration, login, logout, email verification,
// and password reset. It is the sole writer of users, sessions, and codes.
type AuthService struct {
	users         domain.UserRepository
	sessions      domain.SessionRepository
	verifications domain.EmailVerificationRepository
	resets        domain.PasswordResetRepository
	passwords     *PasswordGateway
	notifier      domain.Notifier
	cfg           AuthConfig
	log           *slog.Logger
}

// NewAuthService wires an AuthService from its collaborators.
func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	verifications domain.EmailVerificationRepository,
	resets domain.PasswordResetRepository,
	passwords *PasswordGateway,
	notifier domain.Notifier,
	cfg AuthConfig,
	log *slog.Logger,
) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:         users,
		sessions:      sessions,
		verifications: verifications,
		resets:        resets,
		passwords:     passwords,
		notifier:      notifier,
		cfg:           cfg,
		log:           log,
	}
}

// Register creates a new account. The password is screened against the
// breach corpus before hashing; a compromised or unverifiable password
// rejects the registration. On success a verification code is issued and
// dispatched, and the new account starts unverified. No session is created.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.PublicUser, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return domain.PublicUser{}, ErrInvalidEmail
	}

	if err := s.passwords.ScreenBreach(ctx, password); err != nil {
		return domain.PublicUser{}, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return domain.PublicUser{}, err
	}

	user, err := s.users.Create(ctx, email, username, hash)
	if err != nil {
		return domain.PublicUser{}, err
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return domain.PublicUser{}, err
	}

	return user.Public(), nil
}

// Login authenticates by email and password and issues a new session. The
// account's email must be verified first.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.PublicUser, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.PublicUser{}, "", err
	}
	if user == nil {
		return domain.PublicUser{}, "", ErrUserNotFound
	}

	hash, err := s.users.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return domain.PublicUser{}, "", err
	}
	ok, err := s.passwords.Verify(hash, password)
	if err != nil {
		return domain.PublicUser{}, "", err
	}
	if !ok {
		return domain.PublicUser{}, "", ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return domain.PublicUser{}, "", ErrEmailNotVerified
	}

	token, err := generateSessionToken()
	if err != nil {
		return domain.PublicUser{}, "", err
	}
	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	if err := s.sessions.Create(ctx, token, user.ID, expiresAt); err != nil {
		return domain.PublicUser{}, "", err
	}

	return user.Public(), token, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession resolves a session token to its user. Expired sessions are
// deleted on sight.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// VerifyEmailByCode consumes a verification code, flipping the account to
// verified. All pending requests for the user are deleted afterwards so the
// code cannot be replayed, even under concurrent verification attempts.
func (s *AuthService) VerifyEmailByCode(ctx context.Context, userID int64, code string) error {
	req, err := s.verifications.FindByUserAndCode(ctx, userID, code)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrInvalidCode
	}

	if time.Now().After(req.ExpiresAt) {
		_ = s.verifications.DeleteAllForUser(ctx, userID)
		return ErrInvalidCode
	}

	if err := s.users.SetEmailVerified(ctx, userID); err != nil {
		return err
	}
	return s.verifications.DeleteAllForUser(ctx, userID)
}

// ResendVerification replaces the user's pending verification code with a
// fresh one and dispatches it.
func (s *AuthService) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	return s.issueVerification(ctx, user)
}

// RequestPasswordReset issues a reset code for the account registered under
// email, replacing any pending one, and dispatches it.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	reset := domain.PasswordResetSession{
		ID:        code,
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.cfg.ResetTTL),
	}
	if err := s.resets.Replace(ctx, reset); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, user.Email, code, user.Username); err != nil {
		s.log.Error("password reset email failed", "userId", user.ID, "err", err)
	}
	return nil
}

// ResetPassword consumes a reset code and replaces the account password. The
// new password goes through the same breach screen and hashing as on
// registration. An expired code is deleted and rejected; a consumed code is
// deleted so it works at most once. Existing sessions stay valid.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	reset, err := s.resets.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if reset == nil {
		return ErrInvalidCode
	}

	if time.Now().After(reset.ExpiresAt) {
		_ = s.resets.DeleteByID(ctx, reset.ID)
		return ErrCodeExpired
	}

	if err := s.passwords.ScreenBreach(ctx, newPassword); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, reset.UserID, hash); err != nil {
		return err
	}

	return s.resets.DeleteByID(ctx, reset.ID)
}

// issueVerification replaces the user's pending verification request with a
// fresh code and dispatches it. Notification failures are logged, never
// returned.
func (s *AuthService) issueVerification(ctx context.Context, user *domain.User) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}
	req := domain.EmailVerificationRequest{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.cfg.VerificationTTL),
	}
	if err := s.verifications.Replace(ctx, req); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationEmail(ctx, user.Email, code, user.Username); err != nil {
		s.log.Error("verification email failed", "userId", user.ID, "err", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail applies basic shape checks: bounded length, exactly one @ away
// from the edges, a dot somewhere past the first character of the domain,
// and no whitespace.
func validEmail(email string) bool {
	if len(email) == 0 || len(email) > 255 {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || at == len(email)-1 {
		return false
	}
	dom := email[at+1:]
	dot := strings.Index(dom, ".")
	if dot <= 0 || dot == len(dom)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}
