package goCred

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/MrEthical07/goCred/internal/flows"
)

// RequestPasswordReset issues a reset token for a verified account and
// delivers it through the notifier. Unknown and unverified addresses get the
// same zero ResetIssue and nil error after a short random delay, so the
// response does not reveal whether the address is registered.
func (e *Engine) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (ResetIssue, error) {
	if err := e.checkClientThrottle(ctx, "password_reset"); err != nil {
		return ResetIssue{}, err
	}

	res, err := flows.RunRequestPasswordReset(ctx, req.Email, e.flowDeps.PasswordReset)
	if err != nil {
		e.logOutcome(ctx, "password reset request", res.AccountID, err)
		return ResetIssue{}, err
	}

	issue := ResetIssue{
		AccountID: res.AccountID,
		Email:     res.Email,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	}
	if !issue.Issued() {
		return ResetIssue{}, nil
	}
	if err := e.deliverResetLink(ctx, issue); err != nil {
		return issue, err
	}
	return issue, nil
}

// ConsumePasswordReset sets a new password using the raw reset token. Every
// token failure returns ErrInvalidOrExpired. On success the token, the
// remember-me token and the failed-login counter are cleared.
func (e *Engine) ConsumePasswordReset(ctx context.Context, req ConsumePasswordResetRequest) (string, error) {
	accountID, err := flows.RunConsumePasswordReset(ctx, req.Token, req.NewPassword, e.flowDeps.PasswordReset)
	if err != nil {
		e.logOutcome(ctx, "password reset", accountID, err)
		return "", err
	}
	e.logger.InfoContext(ctx, "password reset completed", "account_id", accountID)
	return accountID, nil
}

// AuthorizePasswordReset validates a reset token without consuming it and
// returns a short-lived grant. The grant id belongs in the caller's
// server-side session, not in the reset form.
func (e *Engine) AuthorizePasswordReset(ctx context.Context, token string) (ResetGrant, error) {
	grant, err := flows.RunAuthorizePasswordReset(ctx, token, e.flowDeps.PasswordReset)
	if err != nil {
		e.logOutcome(ctx, "password reset authorize", "", err)
		return ResetGrant{}, err
	}
	return ResetGrant{
		ID:        grant.ID,
		AccountID: grant.AccountID,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// CompletePasswordReset consumes a grant and sets the new password. A
// missing, used or expired grant returns ErrResetNotAuthorized; a grant whose
// token was replaced or expired meanwhile returns ErrInvalidOrExpired.
func (e *Engine) CompletePasswordReset(ctx context.Context, req CompletePasswordResetRequest) (string, error) {
	accountID, err := flows.RunCompletePasswordReset(ctx, req.GrantID, req.NewPassword, e.flowDeps.PasswordReset)
	if err != nil {
		e.logOutcome(ctx, "password reset complete", accountID, err)
		return "", err
	}
	e.logger.InfoContext(ctx, "password reset completed", "account_id", accountID)
	return accountID, nil
}

func (e *Engine) sleepEnumerationDelay(ctx context.Context) error {
	lo := e.config.PasswordReset.EnumerationDelayMin
	hi := e.config.PasswordReset.EnumerationDelayMax
	d := lo
	if hi > lo {
		d += time.Duration(rand.Int64N(int64(hi - lo + 1)))
	}
	return e.sleep(ctx, d)
}
