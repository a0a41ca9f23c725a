package goCred

import (
	"context"

	"github.com/MrEthical07/goCred/internal/flows"
)

// Register creates an unverified account and issues its first verification
// code. The code is delivered through the notifier when one is configured.
//
// When delivery fails the account still exists: the returned Registration is
// populated and the error matches ErrDeliveryFailed, so the caller can offer a
// resend.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (Registration, error) {
	if err := e.checkClientThrottle(ctx, "register"); err != nil {
		return Registration{}, err
	}

	res, err := flows.RunRegister(ctx, req.Username, req.Email, req.Password, e.flowDeps.Register)
	if err != nil {
		e.logOutcome(ctx, "register", "", err)
		return Registration{}, err
	}
	e.logger.InfoContext(ctx, "account registered", "account_id", res.AccountID)

	reg := Registration{
		AccountID: res.AccountID,
		OTP: OTPIssue{
			AccountID: res.AccountID,
			Email:     res.Email,
			Code:      res.Code,
			ExpiresAt: res.ExpiresAt,
		},
	}
	if err := e.deliverOTP(ctx, reg.OTP); err != nil {
		return reg, err
	}
	return reg, nil
}
