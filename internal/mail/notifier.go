package mail

import (
	"context"
	"log/slog"
)

// Notifier delivers transactional email. Failure must be distinguishable
// from success; callers decide how a failed send affects their flow.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier is a stub implementation that writes deliveries to the
// logger. Used in development when no SMTP server is configured. The body
// is not logged because it carries the verification code.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a logging notifier stub.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send writes the delivery metadata to the structured logger.
func (n *LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("email delivery", "to", to, "subject", subject)
	return nil
}
