package limiters

import (
	"time"

	"github.com/MrEthical07/goCred/internal/rate"
	"github.com/MrEthical07/goCred/store"
)

// LockoutConfig holds the failed-login threshold and its decay window.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// LockoutLimiter decides temporary login lockout from the counters on a
// record. Lockout holds while less than Duration has passed since the last
// failure; the failure counter itself rolls over only once Duration is
// strictly exceeded.
type LockoutLimiter struct {
	window rate.Window
}

func NewLockoutLimiter(cfg LockoutConfig) *LockoutLimiter {
	return &LockoutLimiter{
		window: rate.Window{Ceiling: cfg.Threshold, Span: cfg.Duration},
	}
}

// Locked reports whether a login must be refused without checking the password.
func (l *LockoutLimiter) Locked(rec *store.Record, now time.Time) bool {
	if rec.LoginAttempts < l.window.Ceiling || rec.LastLoginAttemptAt.IsZero() {
		return false
	}
	return now.Sub(rec.LastLoginAttemptAt) < l.window.Span
}

// RecordFailure counts one failed password check.
func (l *LockoutLimiter) RecordFailure(rec *store.Record, now time.Time) {
	effective := rate.Effective(rec.LoginAttempts, rec.LastLoginAttemptAt, l.window.Span, now)
	rec.LoginAttempts, rec.LastLoginAttemptAt = rate.Record(effective, now)
}

// Reset clears the failure counter after a successful login.
func (l *LockoutLimiter) Reset(rec *store.Record) {
	rec.LoginAttempts = 0
}
