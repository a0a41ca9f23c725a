package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/internal/limiters"
	"github.com/MrEthical07/goCred/store"
)

// OTPIssue is the flow-local result of issuing a verification code.
type OTPIssue struct {
	AccountID string
	Email     string
	Code      string
	ExpiresAt time.Time
}

type OTPMetrics struct {
	Issued            int
	ResendThrottled   int
	VerifySuccess     int
	VerifyFailure     int
	AttemptsExhausted int
}

type OTPEvents struct {
	Issue  string
	Verify string
}

type OTPErrors struct {
	EngineNotReady    error
	AlreadyVerified   error
	ResendThrottled   error
	AttemptsExhausted error
	NoActiveCode      error
	Expired           error
	Mismatch          error
	Unavailable       error
}

type OTPDeps struct {
	Common
	Records Records

	Digits  int
	TTL     time.Duration
	Limiter *limiters.OTPLimiter
	Hasher  hasher.Hasher

	GenerateCode func(int) (string, error)
	// ValidateCode returns a validation error when the candidate is not a
	// well-formed code.
	ValidateCode func(string) error

	Metrics OTPMetrics
	Events  OTPEvents
	Errors  OTPErrors
}

func normalizeOTPDeps(deps *OTPDeps) {
	normalizeCommon(&deps.Common)
	if deps.ValidateCode == nil {
		deps.ValidateCode = func(string) error { return nil }
	}
}

// RunIssueOTP replaces the account's active code with a fresh one, subject to
// the resend cooldown and ceiling.
func RunIssueOTP(ctx context.Context, accountID string, deps OTPDeps) (OTPIssue, error) {
	normalizeOTPDeps(&deps)

	if deps.Records.Update == nil || deps.Limiter == nil || deps.Hasher == nil || deps.GenerateCode == nil {
		return OTPIssue{}, deps.Errors.EngineNotReady
	}

	code, err := deps.GenerateCode(deps.Digits)
	if err != nil {
		return OTPIssue{}, deps.Errors.Unavailable
	}
	digest, err := deps.Hasher.Hash(code)
	if err != nil {
		return OTPIssue{}, deps.Errors.Unavailable
	}

	now := deps.Now()
	expiresAt := now.Add(deps.TTL)
	throttleReason := ""

	rec, err := deps.Records.Update(ctx, accountID, func(rec *store.Record) (bool, error) {
		if rec.Verified {
			return false, deps.Errors.AlreadyVerified
		}
		effective, err := deps.Limiter.CheckIssue(rec, now)
		if err != nil {
			throttleReason = err.Error()
			return false, deps.Errors.ResendThrottled
		}
		rec.OTPHash = digest
		rec.OTPExpiresAt = expiresAt
		deps.Limiter.RecordIssue(rec, effective, now)
		return true, nil
	})
	if err != nil {
		mapped := deps.MapStoreError(err)
		if errors.Is(mapped, deps.Errors.ResendThrottled) {
			deps.MetricInc(deps.Metrics.ResendThrottled)
			deps.EmitAudit(ctx, deps.Events.Issue, false, accountID, mapped, reasonMeta(throttleReason))
		} else {
			deps.EmitAudit(ctx, deps.Events.Issue, false, accountID, mapped, nil)
		}
		return OTPIssue{}, mapped
	}

	deps.MetricInc(deps.Metrics.Issued)
	deps.EmitAudit(ctx, deps.Events.Issue, true, accountID, nil, nil)

	return OTPIssue{
		AccountID: rec.AccountID,
		Email:     rec.Email,
		Code:      code,
		ExpiresAt: expiresAt,
	}, nil
}

// RunVerifyOTP checks candidate against the account's active code. Every
// failure past the exhaustion gate is counted against the attempt window.
func RunVerifyOTP(ctx context.Context, accountID, candidate string, deps OTPDeps) error {
	normalizeOTPDeps(&deps)

	if deps.Records.Update == nil || deps.Limiter == nil || deps.Hasher == nil {
		return deps.Errors.EngineNotReady
	}
	if err := deps.ValidateCode(candidate); err != nil {
		deps.MetricInc(deps.Metrics.VerifyFailure)
		deps.EmitAudit(ctx, deps.Events.Verify, false, accountID, err, reasonMeta("malformed_code"))
		return err
	}

	now := deps.Now()
	_, err := deps.Records.Update(ctx, accountID, func(rec *store.Record) (bool, error) {
		if rec.Verified {
			return false, deps.Errors.AlreadyVerified
		}
		if deps.Limiter.AttemptsExhausted(rec, now) {
			return false, deps.Errors.AttemptsExhausted
		}

		var outcome error
		switch {
		case rec.OTPHash == "":
			outcome = deps.Errors.NoActiveCode
		case rec.OTPExpiresAt.Before(now):
			outcome = deps.Errors.Expired
		case !deps.Hasher.Verify(candidate, rec.OTPHash):
			outcome = deps.Errors.Mismatch
		}
		if outcome != nil {
			deps.Limiter.RecordFailedAttempt(rec, now)
			return true, outcome
		}

		rec.Verified = true
		rec.ClearOTP()
		return true, nil
	})
	if err != nil {
		mapped := deps.MapStoreError(err)
		switch {
		case errors.Is(mapped, deps.Errors.AttemptsExhausted):
			deps.MetricInc(deps.Metrics.AttemptsExhausted)
		case errors.Is(mapped, deps.Errors.AlreadyVerified):
		default:
			deps.MetricInc(deps.Metrics.VerifyFailure)
		}
		deps.EmitAudit(ctx, deps.Events.Verify, false, accountID, mapped, nil)
		return mapped
	}

	deps.MetricInc(deps.Metrics.VerifySuccess)
	deps.EmitAudit(ctx, deps.Events.Verify, true, accountID, nil, nil)
	return nil
}
