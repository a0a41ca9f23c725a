package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to a structured logger instead of sending them.
// Bodies carry codes and reset links, so they are logged only when
// IncludeBody is set.
type LogNotifier struct {
	logger      *slog.Logger
	IncludeBody bool
}

// NewLogNotifier constructs a logging notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send writes the message to the logger.
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{"kind", msg.Kind, "to", msg.To, "subject", msg.Subject}
	if n.IncludeBody {
		attrs = append(attrs, "body", msg.Body)
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}
