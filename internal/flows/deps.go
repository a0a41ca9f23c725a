package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goCred/store"
)

// Common carries the hooks every flow shares. The Engine builds it once.
type Common struct {
	Now           func() time.Time
	MapStoreError func(error) error
	MetricInc     func(int)
	EmitAudit     func(ctx context.Context, event string, success bool, accountID string, err error, metadata func() map[string]string)
}

// Records exposes the credential store to the flows as funcs.
type Records struct {
	Create           func(context.Context, *store.Record) error
	Get              func(context.Context, string) (*store.Record, error)
	FindByEmail      func(context.Context, string) (*store.Record, error)
	FindByIdentifier func(context.Context, string) (*store.Record, error)
	Update           func(context.Context, string, store.MutateFunc) (*store.Record, error)
}

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Register      RegisterDeps
	OTP           OTPDeps
	PasswordReset PasswordResetDeps
	Login         LoginDeps
	Remember      RememberDeps
}

// RecordsFromStore adapts a store.Store to Records.
func RecordsFromStore(s store.Store) Records {
	if s == nil {
		return Records{}
	}
	return Records{
		Create:           s.Create,
		Get:              s.Get,
		FindByEmail:      s.FindByEmail,
		FindByIdentifier: s.FindByIdentifier,
		Update:           s.Update,
	}
}

func (r Records) ready() bool {
	return r.Create != nil && r.Get != nil && r.FindByEmail != nil && r.FindByIdentifier != nil && r.Update != nil
}

func normalizeCommon(c *Common) {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MapStoreError == nil {
		c.MapStoreError = func(err error) error { return err }
	}
	if c.MetricInc == nil {
		c.MetricInc = func(int) {}
	}
	if c.EmitAudit == nil {
		c.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
}

func reasonMeta(reason string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": reason}
	}
}
