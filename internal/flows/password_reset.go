package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/internal/limiters"
	"github.com/MrEthical07/goCred/store"
)

// ResetIssue is the flow-local result of a reset request. A zero value with a
// nil error means the request was absorbed without revealing the account.
type ResetIssue struct {
	AccountID string
	Email     string
	Token     string
	ExpiresAt time.Time
}

type PasswordResetMetrics struct {
	Requested int
	Throttled int
	Completed int
	Invalid   int
}

type PasswordResetEvents struct {
	Request   string
	Authorize string
	Complete  string
}

type PasswordResetErrors struct {
	EngineNotReady   error
	ResendThrottled  error
	InvalidOrExpired error
	NotAuthorized    error
	Unavailable      error
}

type PasswordResetDeps struct {
	Common
	Records Records

	TokenTTL time.Duration
	GrantTTL time.Duration
	Limiter  *limiters.ResetLimiter
	Hasher   hasher.Hasher

	GenerateSecret func() (string, error)
	EncodeToken    func(accountID, secret string) (string, error)
	DecodeToken    func(token string) (accountID, secret string, err error)
	NewGrantID     func() string
	PutGrant       func(context.Context, store.Grant, time.Duration) error
	TakeGrant      func(context.Context, string) (store.Grant, error)

	ValidateEmail         func(string) error
	ValidatePassword      func(string) error
	SleepEnumerationDelay func(context.Context) error

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  PasswordResetErrors
}

func normalizePasswordResetDeps(deps *PasswordResetDeps) {
	normalizeCommon(&deps.Common)
	if deps.ValidateEmail == nil {
		deps.ValidateEmail = func(string) error { return nil }
	}
	if deps.ValidatePassword == nil {
		deps.ValidatePassword = func(string) error { return nil }
	}
	if deps.SleepEnumerationDelay == nil {
		deps.SleepEnumerationDelay = func(context.Context) error { return nil }
	}
}

// RunRequestPasswordReset issues a reset token for a verified account. Unknown
// and unverified addresses receive the same empty success after a short
// randomized delay.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordResetDeps) (ResetIssue, error) {
	normalizePasswordResetDeps(&deps)

	if deps.Records.FindByEmail == nil || deps.Records.Update == nil || deps.Limiter == nil ||
		deps.Hasher == nil || deps.GenerateSecret == nil || deps.EncodeToken == nil {
		return ResetIssue{}, deps.Errors.EngineNotReady
	}
	if err := deps.ValidateEmail(email); err != nil {
		deps.EmitAudit(ctx, deps.Events.Request, false, "", err, reasonMeta("validation"))
		return ResetIssue{}, err
	}
	email = store.NormalizeEmail(email)

	rec, err := deps.Records.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.Request, false, "", mapped, nil)
		return ResetIssue{}, mapped
	}
	if err != nil || !rec.Verified {
		return absorbResetRequest(ctx, deps)
	}

	secret, err := deps.GenerateSecret()
	if err != nil {
		return ResetIssue{}, deps.Errors.Unavailable
	}
	digest, err := deps.Hasher.Hash(secret)
	if err != nil {
		return ResetIssue{}, deps.Errors.Unavailable
	}
	token, err := deps.EncodeToken(rec.AccountID, secret)
	if err != nil {
		return ResetIssue{}, deps.Errors.Unavailable
	}

	now := deps.Now()
	expiresAt := now.Add(deps.TokenTTL)
	absorbed := false

	_, err = deps.Records.Update(ctx, rec.AccountID, func(r *store.Record) (bool, error) {
		absorbed = false
		if !r.Verified {
			absorbed = true
			return false, nil
		}
		effective, err := deps.Limiter.CheckRequest(r, now)
		if err != nil {
			return false, deps.Errors.ResendThrottled
		}
		r.ResetTokenHash = digest
		r.ResetExpiresAt = expiresAt
		deps.Limiter.RecordRequest(r, effective, now)
		return true, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return absorbResetRequest(ctx, deps)
		}
		mapped := deps.MapStoreError(err)
		if errors.Is(mapped, deps.Errors.ResendThrottled) {
			deps.MetricInc(deps.Metrics.Throttled)
		}
		deps.EmitAudit(ctx, deps.Events.Request, false, rec.AccountID, mapped, nil)
		return ResetIssue{}, mapped
	}
	if absorbed {
		return absorbResetRequest(ctx, deps)
	}

	deps.MetricInc(deps.Metrics.Requested)
	deps.EmitAudit(ctx, deps.Events.Request, true, rec.AccountID, nil, nil)

	return ResetIssue{
		AccountID: rec.AccountID,
		Email:     rec.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func absorbResetRequest(ctx context.Context, deps PasswordResetDeps) (ResetIssue, error) {
	if err := deps.SleepEnumerationDelay(ctx); err != nil {
		return ResetIssue{}, err
	}
	deps.EmitAudit(ctx, deps.Events.Request, true, "", nil, func() map[string]string {
		return map[string]string{"enumeration_safe": "true"}
	})
	return ResetIssue{}, nil
}

// RunConsumePasswordReset validates the token and sets the new password in
// one transition. All token failures collapse into Errors.InvalidOrExpired.
func RunConsumePasswordReset(ctx context.Context, token, newPassword string, deps PasswordResetDeps) (string, error) {
	normalizePasswordResetDeps(&deps)

	if deps.Records.Update == nil || deps.Hasher == nil || deps.DecodeToken == nil {
		return "", deps.Errors.EngineNotReady
	}
	if err := deps.ValidatePassword(newPassword); err != nil {
		deps.EmitAudit(ctx, deps.Events.Complete, false, "", err, reasonMeta("password_policy"))
		return "", err
	}

	accountID, secret, err := deps.DecodeToken(token)
	if err != nil {
		return "", invalidReset(ctx, "", "malformed_token", deps)
	}

	passwordDigest, err := deps.Hasher.Hash(newPassword)
	if err != nil {
		return "", deps.Errors.Unavailable
	}

	now := deps.Now()
	_, err = deps.Records.Update(ctx, accountID, func(rec *store.Record) (bool, error) {
		if !activeResetToken(rec, now) || !deps.Hasher.Verify(secret, rec.ResetTokenHash) {
			return false, deps.Errors.InvalidOrExpired
		}
		applyPasswordReset(rec, passwordDigest)
		return true, nil
	})
	if err != nil {
		return "", resetUpdateError(ctx, accountID, err, deps)
	}

	deps.MetricInc(deps.Metrics.Completed)
	deps.EmitAudit(ctx, deps.Events.Complete, true, accountID, nil, nil)
	return accountID, nil
}

// RunAuthorizePasswordReset validates a token without consuming it and stores
// a short-lived grant bound to the token's current digest.
func RunAuthorizePasswordReset(ctx context.Context, token string, deps PasswordResetDeps) (store.Grant, error) {
	normalizePasswordResetDeps(&deps)

	if deps.Records.Get == nil || deps.Hasher == nil || deps.DecodeToken == nil || deps.NewGrantID == nil || deps.PutGrant == nil {
		return store.Grant{}, deps.Errors.EngineNotReady
	}

	accountID, secret, err := deps.DecodeToken(token)
	if err != nil {
		return store.Grant{}, invalidResetAt(ctx, deps.Events.Authorize, "", "malformed_token", deps)
	}

	rec, err := deps.Records.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Grant{}, invalidResetAt(ctx, deps.Events.Authorize, accountID, "unknown_account", deps)
		}
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.Authorize, false, accountID, mapped, nil)
		return store.Grant{}, mapped
	}

	now := deps.Now()
	if !activeResetToken(rec, now) || !deps.Hasher.Verify(secret, rec.ResetTokenHash) {
		return store.Grant{}, invalidResetAt(ctx, deps.Events.Authorize, accountID, "token_rejected", deps)
	}

	grant := store.Grant{
		ID:          deps.NewGrantID(),
		AccountID:   accountID,
		TokenDigest: rec.ResetTokenHash,
		ExpiresAt:   now.Add(deps.GrantTTL),
	}
	if err := deps.PutGrant(ctx, grant, deps.GrantTTL); err != nil {
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.Authorize, false, accountID, mapped, nil)
		return store.Grant{}, mapped
	}

	deps.EmitAudit(ctx, deps.Events.Authorize, true, accountID, nil, nil)
	return grant, nil
}

// RunCompletePasswordReset consumes a grant and applies the new password. The
// record must still carry the digest the grant was issued against.
func RunCompletePasswordReset(ctx context.Context, grantID, newPassword string, deps PasswordResetDeps) (string, error) {
	normalizePasswordResetDeps(&deps)

	if deps.Records.Update == nil || deps.Hasher == nil || deps.TakeGrant == nil {
		return "", deps.Errors.EngineNotReady
	}
	if err := deps.ValidatePassword(newPassword); err != nil {
		deps.EmitAudit(ctx, deps.Events.Complete, false, "", err, reasonMeta("password_policy"))
		return "", err
	}
	if grantID == "" {
		deps.EmitAudit(ctx, deps.Events.Complete, false, "", deps.Errors.NotAuthorized, reasonMeta("missing_grant"))
		return "", deps.Errors.NotAuthorized
	}

	grant, err := deps.TakeGrant(ctx, grantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			deps.EmitAudit(ctx, deps.Events.Complete, false, "", deps.Errors.NotAuthorized, reasonMeta("unknown_grant"))
			return "", deps.Errors.NotAuthorized
		}
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.Complete, false, "", mapped, nil)
		return "", mapped
	}

	now := deps.Now()
	if !grant.ExpiresAt.IsZero() && now.After(grant.ExpiresAt) {
		deps.EmitAudit(ctx, deps.Events.Complete, false, grant.AccountID, deps.Errors.NotAuthorized, reasonMeta("grant_expired"))
		return "", deps.Errors.NotAuthorized
	}

	passwordDigest, err := deps.Hasher.Hash(newPassword)
	if err != nil {
		return "", deps.Errors.Unavailable
	}

	_, err = deps.Records.Update(ctx, grant.AccountID, func(rec *store.Record) (bool, error) {
		if !activeResetToken(rec, now) ||
			subtle.ConstantTimeCompare([]byte(rec.ResetTokenHash), []byte(grant.TokenDigest)) != 1 {
			return false, deps.Errors.InvalidOrExpired
		}
		applyPasswordReset(rec, passwordDigest)
		return true, nil
	})
	if err != nil {
		return "", resetUpdateError(ctx, grant.AccountID, err, deps)
	}

	deps.MetricInc(deps.Metrics.Completed)
	deps.EmitAudit(ctx, deps.Events.Complete, true, grant.AccountID, nil, nil)
	return grant.AccountID, nil
}

// activeResetToken reports whether rec carries an unexpired reset token. An
// expiry equal to now is still valid.
func activeResetToken(rec *store.Record, now time.Time) bool {
	return rec.ResetTokenHash != "" && !rec.ResetExpiresAt.Before(now)
}

// applyPasswordReset sets the new password and drops every credential that
// predates it.
func applyPasswordReset(rec *store.Record, passwordDigest string) {
	rec.PasswordHash = passwordDigest
	rec.ClearReset()
	rec.RememberTokenHash = ""
	rec.LoginAttempts = 0
	rec.LastLoginAttemptAt = time.Time{}
}

func resetUpdateError(ctx context.Context, accountID string, err error, deps PasswordResetDeps) error {
	if errors.Is(err, store.ErrNotFound) {
		return invalidReset(ctx, accountID, "unknown_account", deps)
	}
	mapped := deps.MapStoreError(err)
	if errors.Is(mapped, deps.Errors.InvalidOrExpired) {
		return invalidReset(ctx, accountID, "token_rejected", deps)
	}
	deps.EmitAudit(ctx, deps.Events.Complete, false, accountID, mapped, nil)
	return mapped
}

func invalidReset(ctx context.Context, accountID, reason string, deps PasswordResetDeps) error {
	return invalidResetAt(ctx, deps.Events.Complete, accountID, reason, deps)
}

func invalidResetAt(ctx context.Context, event, accountID, reason string, deps PasswordResetDeps) error {
	deps.MetricInc(deps.Metrics.Invalid)
	deps.EmitAudit(ctx, event, false, accountID, deps.Errors.InvalidOrExpired, reasonMeta(reason))
	return deps.Errors.InvalidOrExpired
}
