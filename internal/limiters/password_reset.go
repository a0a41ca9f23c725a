package limiters

import (
	"time"

	"github.com/MrEthical07/goCred/internal/rate"
	"github.com/MrEthical07/goCred/store"
)

// ResetConfig bounds reset-link requests per account.
type ResetConfig struct {
	RequestCeiling  int
	RequestWindow   time.Duration
	RequestCooldown time.Duration
}

// ResetLimiter applies the reset request window stored on a record.
type ResetLimiter struct {
	requests rate.Window
}

func NewResetLimiter(cfg ResetConfig) *ResetLimiter {
	return &ResetLimiter{
		requests: rate.Window{
			Ceiling:  cfg.RequestCeiling,
			Span:     cfg.RequestWindow,
			Cooldown: cfg.RequestCooldown,
		},
	}
}

// CheckRequest returns the effective request count or a window error.
func (l *ResetLimiter) CheckRequest(rec *store.Record, now time.Time) (int, error) {
	return l.requests.Check(rec.ResetRequestCount, rec.ResetLastSentAt, now)
}

// RecordRequest stamps an issued token onto the request window.
func (l *ResetLimiter) RecordRequest(rec *store.Record, effective int, now time.Time) {
	rec.ResetRequestCount, rec.ResetLastSentAt = rate.Record(effective, now)
}
