package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/store"
)

type RememberMetrics struct {
	Issued   int
	Rejected int
}

type RememberEvents struct {
	Issue    string
	Validate string
	Revoke   string
}

type RememberErrors struct {
	EngineNotReady error
	Invalid        error
	Unavailable    error
}

type RememberDeps struct {
	Common
	Records Records

	Hasher hasher.Hasher

	GenerateSecret func() (string, error)
	EncodeToken    func(accountID, secret string) string
	DecodeToken    func(value string) (accountID, secret string, err error)

	Metrics RememberMetrics
	Events  RememberEvents
	Errors  RememberErrors
}

func normalizeRememberDeps(deps *RememberDeps) {
	normalizeCommon(&deps.Common)
}

// RunIssueRememberToken stores the digest of a fresh secret on the account,
// replacing any earlier one, and returns the cookie value.
func RunIssueRememberToken(ctx context.Context, accountID string, deps RememberDeps) (string, error) {
	normalizeRememberDeps(&deps)

	if deps.Records.Update == nil || deps.Hasher == nil || deps.GenerateSecret == nil || deps.EncodeToken == nil {
		return "", deps.Errors.EngineNotReady
	}

	secret, err := deps.GenerateSecret()
	if err != nil {
		return "", deps.Errors.Unavailable
	}
	digest, err := deps.Hasher.Hash(secret)
	if err != nil {
		return "", deps.Errors.Unavailable
	}

	_, err = deps.Records.Update(ctx, accountID, func(rec *store.Record) (bool, error) {
		rec.RememberTokenHash = digest
		return true, nil
	})
	if err != nil {
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.Issue, false, accountID, mapped, nil)
		return "", mapped
	}

	deps.MetricInc(deps.Metrics.Issued)
	deps.EmitAudit(ctx, deps.Events.Issue, true, accountID, nil, nil)
	return deps.EncodeToken(accountID, secret), nil
}

// RunValidateRememberToken resolves a cookie value to its account id.
func RunValidateRememberToken(ctx context.Context, value string, deps RememberDeps) (string, error) {
	normalizeRememberDeps(&deps)

	if deps.Records.Get == nil || deps.Hasher == nil || deps.DecodeToken == nil {
		return "", deps.Errors.EngineNotReady
	}

	accountID, secret, err := deps.DecodeToken(value)
	if err != nil {
		return "", rejectRemember(ctx, "", "malformed_token", deps)
	}

	rec, err := deps.Records.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", rejectRemember(ctx, accountID, "unknown_account", deps)
		}
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.Validate, false, accountID, mapped, nil)
		return "", mapped
	}
	if rec.RememberTokenHash == "" {
		return "", rejectRemember(ctx, accountID, "no_token", deps)
	}
	if !deps.Hasher.Verify(secret, rec.RememberTokenHash) {
		return "", rejectRemember(ctx, accountID, "mismatch", deps)
	}

	deps.EmitAudit(ctx, deps.Events.Validate, true, accountID, nil, nil)
	return accountID, nil
}

// RunRevokeRememberToken clears the stored digest. Revoking an account with no
// token is a no-op.
func RunRevokeRememberToken(ctx context.Context, accountID string, deps RememberDeps) error {
	normalizeRememberDeps(&deps)

	if deps.Records.Update == nil {
		return deps.Errors.EngineNotReady
	}

	_, err := deps.Records.Update(ctx, accountID, func(rec *store.Record) (bool, error) {
		if rec.RememberTokenHash == "" {
			return false, nil
		}
		rec.RememberTokenHash = ""
		return true, nil
	})
	if err != nil {
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.Revoke, false, accountID, mapped, nil)
		return mapped
	}

	deps.EmitAudit(ctx, deps.Events.Revoke, true, accountID, nil, nil)
	return nil
}

func rejectRemember(ctx context.Context, accountID, reason string, deps RememberDeps) error {
	deps.MetricInc(deps.Metrics.Rejected)
	deps.EmitAudit(ctx, deps.Events.Validate, false, accountID, deps.Errors.Invalid, reasonMeta(reason))
	return deps.Errors.Invalid
}
