package notify

import (
	"context"
	"errors"
)

const (
	// KindVerificationCode marks a registration or resend code message.
	KindVerificationCode = "verification_code"
	// KindPasswordReset marks a reset link message.
	KindPasswordReset = "password_reset"
)

// ErrInvalidMessage is returned when a message has no recipient or carries
// header-breaking characters.
var ErrInvalidMessage = errors.New("notify: invalid message")

// Message is one outbound plain-text notification.
type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages to downstream systems.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Func adapts a function to [Notifier].
type Func func(ctx context.Context, msg Message) error

// Send calls f.
func (f Func) Send(ctx context.Context, msg Message) error {
	if f == nil {
		return nil
	}
	return f(ctx, msg)
}
