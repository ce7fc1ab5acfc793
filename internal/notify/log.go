// Package notify implements outbound code delivery. The log notifier stands
// in for a real mail provider: codes are emitted to the structured log, which
// matches how the deployment currently surfaces them to operators.
package notify

import (
	"context"
	"log/slog"

	"campusauth/internal/domain"
)

// LogNotifier writes verification and reset codes to a slog.Logger.
type LogNotifier struct {
	log *slog.Logger
}

var _ domain.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier. A nil logger falls back to
// slog.Default.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

// SendVerificationEmail logs the verification code for the address.
func (n *LogNotifier) SendVerificationEmail(ctx context.Context, address, code, displayName string) error {
	n.log.InfoContext(ctx, "verification email", "to", address, "name", displayName, "code", code)
	return nil
}

// SendPasswordResetEmail logs the reset code for the address.
func (n *LogNotifier) SendPasswordResetEmail(ctx context.Context, address, code, displayName string) error {
	n.log.InfoContext(ctx, "password reset email", "to", address, "name", displayName, "code", code)
	return nil
}
