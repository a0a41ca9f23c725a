package goCred

import (
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goCred/internal/audit"
)

// RegisterRequest carries the fields of a new account.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// OTPIssue is returned whenever a verification code is issued. Code is the
// only plaintext copy; the store keeps its digest.
type OTPIssue struct {
	AccountID string
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Registration is returned by [Engine.Register]. OTP holds the first code.
type Registration struct {
	AccountID string
	OTP       OTPIssue
}

// VerifyOTPRequest identifies the pending account and the presented code.
type VerifyOTPRequest struct {
	AccountID string
	Code      string
}

// PasswordResetRequest starts a reset for Email.
type PasswordResetRequest struct {
	Email string
}

// ResetIssue is returned by [Engine.RequestPasswordReset]. A zero value means
// the request was accepted without issuing a token.
type ResetIssue struct {
	AccountID string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Issued reports whether a token was produced.
func (r ResetIssue) Issued() bool {
	return r.Token != ""
}

// ConsumePasswordResetRequest sets a new password using the raw reset token.
type ConsumePasswordResetRequest struct {
	Token       string
	NewPassword string
}

// ResetGrant is returned by [Engine.AuthorizePasswordReset]. The caller keeps
// ID in its server-side session and presents it to CompletePasswordReset.
type ResetGrant struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
}

// CompletePasswordResetRequest sets a new password using a reset grant.
type CompletePasswordResetRequest struct {
	GrantID     string
	NewPassword string
}

// LoginRequest authenticates by username or email.
type LoginRequest struct {
	Identifier string
	Password   string
	RememberMe bool
}

// LoginResult is returned by [Engine.Login]. RememberToken is set only when
// the request asked for it.
type LoginResult struct {
	AccountID     string
	RememberToken string
}

// AccountState is a read-only view of an account's verification and lockout status.
type AccountState struct {
	AccountID string
	Username  string
	Email     string
	Verified  bool
	Locked    bool
	CreatedAt time.Time
}

// AuditEvent is the structured record emitted for every credential decision.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink logs events through a slog.Logger.
type SlogSink = internalaudit.SlogSink

// MultiSink fans events out to several sinks.
type MultiSink = internalaudit.MultiSink

// NewChannelSink creates a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink] writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
