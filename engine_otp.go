package goCred

import (
	"context"

	"github.com/MrEthical07/goCred/internal/flows"
	"github.com/MrEthical07/goCred/store"
)

// IssueOTP replaces the account's active verification code with a new one,
// subject to the resend cooldown and hourly ceiling. The code is returned and
// not delivered; see [Engine.ResendOTP] for the delivering variant.
func (e *Engine) IssueOTP(ctx context.Context, accountID string) (OTPIssue, error) {
	res, err := flows.RunIssueOTP(ctx, accountID, e.flowDeps.OTP)
	if err != nil {
		e.logOutcome(ctx, "otp issue", accountID, err)
		return OTPIssue{}, err
	}
	return OTPIssue{
		AccountID: res.AccountID,
		Email:     res.Email,
		Code:      res.Code,
		ExpiresAt: res.ExpiresAt,
	}, nil
}

// ResendOTP looks up the pending account by email, issues a fresh code and
// delivers it. Unknown addresses yield ErrAccountNotFound and verified ones
// ErrAlreadyVerified. A delivery failure yields ErrDeliveryFailed; the resend
// still counts against the window.
func (e *Engine) ResendOTP(ctx context.Context, email string) (OTPIssue, error) {
	if err := e.checkClientThrottle(ctx, "resend_otp"); err != nil {
		return OTPIssue{}, err
	}
	if err := validateEmail(email); err != nil {
		return OTPIssue{}, err
	}

	rec, err := e.store.FindByEmail(ctx, store.NormalizeEmail(email))
	if err != nil {
		return OTPIssue{}, e.mapStoreError(err)
	}
	if rec.Verified {
		return OTPIssue{}, ErrAlreadyVerified
	}

	issue, err := e.IssueOTP(ctx, rec.AccountID)
	if err != nil {
		return OTPIssue{}, err
	}
	if err := e.deliverOTP(ctx, issue); err != nil {
		return issue, err
	}
	return issue, nil
}

// VerifyOTP checks a presented code. Malformed codes are rejected with
// ErrValidation before any state changes; every other failure counts against
// the verification window.
func (e *Engine) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	if err := flows.RunVerifyOTP(ctx, req.AccountID, req.Code, e.flowDeps.OTP); err != nil {
		e.logOutcome(ctx, "otp verify", req.AccountID, err)
		return err
	}
	e.logger.InfoContext(ctx, "account verified", "account_id", req.AccountID)
	return nil
}
