package goCred

import (
	"context"

	"github.com/MrEthical07/goCred/internal/flows"
)

// IssueRememberToken stores a fresh remember-me digest for the account,
// replacing any earlier token, and returns the cookie value.
func (e *Engine) IssueRememberToken(ctx context.Context, accountID string) (string, error) {
	token, err := flows.RunIssueRememberToken(ctx, accountID, e.flowDeps.Remember)
	if err != nil {
		e.logOutcome(ctx, "remember issue", accountID, err)
		return "", err
	}
	return token, nil
}

// ValidateRememberToken resolves a cookie value to its account id, or
// returns ErrRememberTokenInvalid.
func (e *Engine) ValidateRememberToken(ctx context.Context, value string) (string, error) {
	accountID, err := flows.RunValidateRememberToken(ctx, value, e.flowDeps.Remember)
	if err != nil {
		e.logOutcome(ctx, "remember validate", accountID, err)
		return "", err
	}
	return accountID, nil
}

// RevokeRememberToken clears the account's remember-me token, typically on logout.
func (e *Engine) RevokeRememberToken(ctx context.Context, accountID string) error {
	if err := flows.RunRevokeRememberToken(ctx, accountID, e.flowDeps.Remember); err != nil {
		e.logOutcome(ctx, "remember revoke", accountID, err)
		return err
	}
	return nil
}
