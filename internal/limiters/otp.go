package limiters

import (
	"time"

	"github.com/MrEthical07/goCred/internal/rate"
	"github.com/MrEthical07/goCred/store"
)

// OTPConfig bounds code issuance and verification attempts.
type OTPConfig struct {
	ResendCeiling  int
	ResendWindow   time.Duration
	ResendCooldown time.Duration
	AttemptCeiling int
	AttemptWindow  time.Duration
}

// OTPLimiter applies the resend and attempt windows stored on a record.
type OTPLimiter struct {
	resend   rate.Window
	attempts rate.Window
}

func NewOTPLimiter(cfg OTPConfig) *OTPLimiter {
	return &OTPLimiter{
		resend: rate.Window{
			Ceiling:  cfg.ResendCeiling,
			Span:     cfg.ResendWindow,
			Cooldown: cfg.ResendCooldown,
		},
		attempts: rate.Window{
			Ceiling: cfg.AttemptCeiling,
			Span:    cfg.AttemptWindow,
		},
	}
}

// CheckIssue returns the effective resend count, or rate.ErrCooldown /
// rate.ErrCeiling when a new code may not be issued yet.
func (l *OTPLimiter) CheckIssue(rec *store.Record, now time.Time) (int, error) {
	return l.resend.Check(rec.OTPResendCount, rec.OTPLastSentAt, now)
}

// RecordIssue stamps an issued code onto the resend window.
func (l *OTPLimiter) RecordIssue(rec *store.Record, effective int, now time.Time) {
	rec.OTPResendCount, rec.OTPLastSentAt = rate.Record(effective, now)
}

// AttemptsExhausted reports whether verification must be refused outright.
func (l *OTPLimiter) AttemptsExhausted(rec *store.Record, now time.Time) bool {
	return l.attempts.Exhausted(rec.OTPVerifyAttempts, rec.OTPLastAttemptAt, now)
}

// RecordFailedAttempt counts one failed verification.
func (l *OTPLimiter) RecordFailedAttempt(rec *store.Record, now time.Time) {
	effective := rate.Effective(rec.OTPVerifyAttempts, rec.OTPLastAttemptAt, l.attempts.Span, now)
	rec.OTPVerifyAttempts, rec.OTPLastAttemptAt = rate.Record(effective, now)
}
