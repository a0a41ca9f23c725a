package goCred

import "context"

// AccountState reports whether an account is verified and whether logins are
// currently refused by the temporary lockout. It never mutates the record.
func (e *Engine) AccountState(ctx context.Context, accountID string) (AccountState, error) {
	rec, err := e.store.Get(ctx, accountID)
	if err != nil {
		return AccountState{}, e.mapStoreError(err)
	}
	return AccountState{
		AccountID: rec.AccountID,
		Username:  rec.Username,
		Email:     rec.Email,
		Verified:  rec.Verified,
		Locked:    e.lockout.Locked(rec, e.now()),
		CreatedAt: rec.CreatedAt,
	}, nil
}
