package goCred

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/internal/flows"
	"github.com/MrEthical07/goCred/internal/limiters"
	"github.com/MrEthical07/goCred/internal/rate"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/store"
)

// Engine is the credential verification core. It issues and verifies
// registration codes, password-reset tokens and remember-me tokens, and
// governs login attempts.
//
// Engine instances are built once through [Builder.Build] and are safe for
// concurrent use.
type Engine struct {
	config    Config
	store     store.Store
	grants    store.GrantStore
	notifier  notify.Notifier
	resetLink func(token string) string
	logger    *slog.Logger
	clock     func() time.Time
	sleep     func(context.Context, time.Duration) error

	lockout   *limiters.LockoutLimiter
	ipLimiter *rate.Limiter
	audit     *internalaudit.Dispatcher
	metrics   *Metrics

	flowDeps flows.Deps
}

// Close stops the audit dispatcher after delivering buffered events. It does
// not close the store or the Redis client.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters. The maps are
// empty when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

// mapStoreError converts backend errors into the public taxonomy. Domain
// outcomes returned from inside an update pass through unchanged.
func (e *Engine) mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrAccountExists
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	e.logger.Warn("credential store error", "error", err)
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// checkClientThrottle applies the per-IP budget for scope. A Redis outage
// lets the request through; per-account windows still apply.
func (e *Engine) checkClientThrottle(ctx context.Context, scope string) error {
	if e.ipLimiter == nil {
		return nil
	}
	ip := clientIPFromContext(ctx)

	err := e.ipLimiter.Allow(ctx, scope, ip)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricIPThrottled)
		e.logger.DebugContext(ctx, "client throttled", "scope", scope, "ip", ip)
		e.emitAudit(ctx, auditEventIPThrottled, false, "", ErrTooManyRequests, func() map[string]string {
			return map[string]string{"scope": scope}
		})
		return ErrTooManyRequests
	default:
		e.logger.WarnContext(ctx, "client throttle unavailable", "scope", scope, "error", err)
		return nil
	}
}

// logOutcome logs a failed operation at the level its cause deserves.
// Infrastructure failures are warnings; throttles are debug.
func (e *Engine) logOutcome(ctx context.Context, op, accountID string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrEngineNotReady):
		e.logger.WarnContext(ctx, op+" failed", "account_id", accountID, "error", err)
	case errors.Is(err, ErrResendThrottled), errors.Is(err, ErrAttemptsExhausted), errors.Is(err, ErrLockedOut):
		e.logger.DebugContext(ctx, op+" throttled", "account_id", accountID, "error", err)
	}
}
