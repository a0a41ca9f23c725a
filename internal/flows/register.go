package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/store"
)

// Registration is the flow-local result of a successful registration.
type Registration struct {
	AccountID string
	Username  string
	Email     string
	Code      string
	ExpiresAt time.Time
}

type RegisterMetrics struct {
	Registered int
	OTPIssued  int
}

type RegisterEvents struct {
	Register string
}

type RegisterErrors struct {
	EngineNotReady error
	AccountExists  error
	Unavailable    error
}

type RegisterDeps struct {
	Common
	Records Records

	OTPDigits int
	OTPTTL    time.Duration

	Hasher hasher.Hasher

	// Validate returns a validation error for the first offending field.
	Validate     func(username, email, password string) error
	GenerateCode func(int) (string, error)
	NewID        func() string

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

func normalizeRegisterDeps(deps *RegisterDeps) {
	normalizeCommon(&deps.Common)
	if deps.Validate == nil {
		deps.Validate = func(string, string, string) error { return nil }
	}
}

// RunRegister creates an unverified account and issues its first code. The
// resend window starts at zero with the anchor at now, so the first resend is
// subject to the cooldown.
func RunRegister(ctx context.Context, username, email, password string, deps RegisterDeps) (Registration, error) {
	normalizeRegisterDeps(&deps)

	if !deps.Records.ready() || deps.Hasher == nil || deps.GenerateCode == nil || deps.NewID == nil {
		return Registration{}, deps.Errors.EngineNotReady
	}

	username = strings.TrimSpace(username)
	if err := deps.Validate(username, email, password); err != nil {
		deps.EmitAudit(ctx, deps.Events.Register, false, "", err, reasonMeta("validation"))
		return Registration{}, err
	}
	email = store.NormalizeEmail(email)

	passwordDigest, err := deps.Hasher.Hash(password)
	if err != nil {
		return Registration{}, deps.Errors.Unavailable
	}
	code, err := deps.GenerateCode(deps.OTPDigits)
	if err != nil {
		return Registration{}, deps.Errors.Unavailable
	}
	codeDigest, err := deps.Hasher.Hash(code)
	if err != nil {
		return Registration{}, deps.Errors.Unavailable
	}

	now := deps.Now()
	rec := &store.Record{
		AccountID:     deps.NewID(),
		Username:      username,
		Email:         email,
		PasswordHash:  passwordDigest,
		OTPHash:       codeDigest,
		OTPExpiresAt:  now.Add(deps.OTPTTL),
		OTPLastSentAt: now,
		CreatedAt:     now,
	}

	if err := deps.Records.Create(ctx, rec); err != nil {
		mapped := deps.MapStoreError(err)
		if errors.Is(err, store.ErrDuplicate) {
			mapped = deps.Errors.AccountExists
		}
		deps.EmitAudit(ctx, deps.Events.Register, false, "", mapped, nil)
		return Registration{}, mapped
	}

	deps.MetricInc(deps.Metrics.Registered)
	deps.MetricInc(deps.Metrics.OTPIssued)
	deps.EmitAudit(ctx, deps.Events.Register, true, rec.AccountID, nil, nil)

	return Registration{
		AccountID: rec.AccountID,
		Username:  rec.Username,
		Email:     rec.Email,
		Code:      code,
		ExpiresAt: rec.OTPExpiresAt,
	}, nil
}
