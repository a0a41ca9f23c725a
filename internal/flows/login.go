package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/internal/limiters"
	"github.com/MrEthical07/goCred/store"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	AccountID string
	Rehashed  bool
}

type LoginMetrics struct {
	LoginSuccess   int
	LoginFailure   int
	LoginLockedOut int
}

type LoginEvents struct {
	LoginSuccess   string
	LoginFailure   string
	LoginLockedOut string
}

type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	LockedOut          error
	AccountUnverified  error
}

type LoginDeps struct {
	Common
	Records Records

	Lockout *limiters.LockoutLimiter
	Hasher  hasher.Hasher
	// DummyDigest is verified against when the identifier is unknown so the
	// response time does not reveal whether the account exists.
	DummyDigest string

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func normalizeLoginDeps(deps *LoginDeps) {
	normalizeCommon(&deps.Common)
}

// RunLogin authenticates identifier (username or email) with password. The
// lockout gate, the verified check and the failure counter all evaluate inside
// one store update.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (LoginResult, error) {
	normalizeLoginDeps(&deps)

	if deps.Records.FindByIdentifier == nil || deps.Records.Update == nil || deps.Lockout == nil || deps.Hasher == nil {
		return LoginResult{}, deps.Errors.EngineNotReady
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.InvalidCredentials, reasonMeta("empty_credentials"))
		return LoginResult{}, deps.Errors.InvalidCredentials
	}

	rec, err := deps.Records.FindByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			mapped := deps.MapStoreError(err)
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", mapped, nil)
			return LoginResult{}, mapped
		}
		if deps.DummyDigest != "" {
			deps.Hasher.Verify(password, deps.DummyDigest)
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.InvalidCredentials, reasonMeta("unknown_identifier"))
		return LoginResult{}, deps.Errors.InvalidCredentials
	}

	now := deps.Now()
	rehashed := false

	_, err = deps.Records.Update(ctx, rec.AccountID, func(r *store.Record) (bool, error) {
		rehashed = false
		if deps.Lockout.Locked(r, now) {
			return false, deps.Errors.LockedOut
		}
		if !r.Verified {
			return false, deps.Errors.AccountUnverified
		}
		if !deps.Hasher.Verify(password, r.PasswordHash) {
			deps.Lockout.RecordFailure(r, now)
			return true, deps.Errors.InvalidCredentials
		}

		deps.Lockout.Reset(r)
		r.LastLoginAt = now
		if deps.Hasher.NeedsUpgrade(r.PasswordHash) {
			if upgraded, err := deps.Hasher.Hash(password); err == nil {
				r.PasswordHash = upgraded
				rehashed = true
			}
		}
		return true, nil
	})
	if err != nil {
		mapped := deps.MapStoreError(err)
		switch {
		case errors.Is(mapped, deps.Errors.LockedOut):
			deps.MetricInc(deps.Metrics.LoginLockedOut)
			deps.EmitAudit(ctx, deps.Events.LoginLockedOut, false, rec.AccountID, mapped, nil)
		default:
			deps.MetricInc(deps.Metrics.LoginFailure)
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, rec.AccountID, mapped, nil)
		}
		return LoginResult{}, mapped
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, rec.AccountID, nil, func() map[string]string {
		if !rehashed {
			return nil
		}
		return map[string]string{"rehashed": "true"}
	})

	return LoginResult{AccountID: rec.AccountID, Rehashed: rehashed}, nil
}
