package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/internal"
	"github.com/MrEthical07/goCred/internal/limiters"
	"github.com/MrEthical07/goCred/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	errNotReady      = errors.New("not ready")
	errAlready       = errors.New("already verified")
	errThrottled     = errors.New("throttled")
	errExhausted     = errors.New("exhausted")
	errNoActive      = errors.New("no active")
	errExpired       = errors.New("expired")
	errMismatch      = errors.New("mismatch")
	errUnavailable   = errors.New("unavailable")
	errInvalidReset  = errors.New("invalid or expired")
	errNotAuthorized = errors.New("not authorized")
	errLocked        = errors.New("locked")
	errUnverified    = errors.New("unverified")
	errCredentials   = errors.New("invalid credentials")
	errRemember      = errors.New("remember invalid")
	errExists        = errors.New("exists")
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock  *fakeClock
	store  *store.Memory
	grants *store.MemoryGrants
	hasher hasher.Hasher
	events []string
	mu     sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h, err := hasher.NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	return &fixture{
		clock:  &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
		store:  store.NewMemory(),
		grants: store.NewMemoryGrants(),
		hasher: h,
	}
}

func (f *fixture) common() Common {
	return Common{
		Now: f.clock.Now,
		EmitAudit: func(_ context.Context, event string, success bool, _ string, _ error, _ func() map[string]string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if success {
				f.events = append(f.events, event+":ok")
			} else {
				f.events = append(f.events, event+":fail")
			}
		},
	}
}

func (f *fixture) registerDeps() RegisterDeps {
	return RegisterDeps{
		Common:       f.common(),
		Records:      RecordsFromStore(f.store),
		OTPDigits:    6,
		OTPTTL:       10 * time.Minute,
		Hasher:       f.hasher,
		GenerateCode: internal.NewOTP,
		NewID:        internal.NewID,
		Events:       RegisterEvents{Register: "register"},
		Errors:       RegisterErrors{EngineNotReady: errNotReady, AccountExists: errExists, Unavailable: errUnavailable},
	}
}

func (f *fixture) otpDeps() OTPDeps {
	return OTPDeps{
		Common:  f.common(),
		Records: RecordsFromStore(f.store),
		Digits:  6,
		TTL:     10 * time.Minute,
		Limiter: limiters.NewOTPLimiter(limiters.OTPConfig{
			ResendCeiling:  5,
			ResendWindow:   time.Hour,
			ResendCooldown: time.Minute,
			AttemptCeiling: 5,
			AttemptWindow:  time.Hour,
		}),
		Hasher:       f.hasher,
		GenerateCode: internal.NewOTP,
		Events:       OTPEvents{Issue: "otp_issue", Verify: "otp_verify"},
		Errors: OTPErrors{
			EngineNotReady:    errNotReady,
			AlreadyVerified:   errAlready,
			ResendThrottled:   errThrottled,
			AttemptsExhausted: errExhausted,
			NoActiveCode:      errNoActive,
			Expired:           errExpired,
			Mismatch:          errMismatch,
			Unavailable:       errUnavailable,
		},
	}
}

func (f *fixture) resetDeps() PasswordResetDeps {
	return PasswordResetDeps{
		Common:   f.common(),
		Records:  RecordsFromStore(f.store),
		TokenTTL: time.Hour,
		GrantTTL: 15 * time.Minute,
		Limiter: limiters.NewResetLimiter(limiters.ResetConfig{
			RequestCeiling: 3,
			RequestWindow:  time.Hour,
		}),
		Hasher:         f.hasher,
		GenerateSecret: internal.NewTokenSecret,
		EncodeToken:    internal.EncodeResetToken,
		DecodeToken:    internal.DecodeResetToken,
		NewGrantID:     internal.NewID,
		PutGrant:       f.grants.Put,
		TakeGrant:      f.grants.Take,
		Events:         PasswordResetEvents{Request: "reset_request", Authorize: "reset_authorize", Complete: "reset_complete"},
		Errors: PasswordResetErrors{
			EngineNotReady:   errNotReady,
			ResendThrottled:  errThrottled,
			InvalidOrExpired: errInvalidReset,
			NotAuthorized:    errNotAuthorized,
			Unavailable:      errUnavailable,
		},
	}
}

func (f *fixture) loginDeps() LoginDeps {
	return LoginDeps{
		Common:  f.common(),
		Records: RecordsFromStore(f.store),
		Lockout: limiters.NewLockoutLimiter(limiters.LockoutConfig{Threshold: 5, Duration: 15 * time.Minute}),
		Hasher:  f.hasher,
		Events:  LoginEvents{LoginSuccess: "login_success", LoginFailure: "login_failure", LoginLockedOut: "login_locked"},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			InvalidCredentials: errCredentials,
			LockedOut:          errLocked,
			AccountUnverified:  errUnverified,
		},
	}
}

func (f *fixture) rememberDeps() RememberDeps {
	return RememberDeps{
		Common:         f.common(),
		Records:        RecordsFromStore(f.store),
		Hasher:         f.hasher,
		GenerateSecret: internal.NewTokenSecret,
		EncodeToken:    internal.EncodeRememberToken,
		DecodeToken:    internal.DecodeRememberToken,
		Events:         RememberEvents{Issue: "remember_issue", Validate: "remember_validate", Revoke: "remember_revoke"},
		Errors:         RememberErrors{EngineNotReady: errNotReady, Invalid: errRemember, Unavailable: errUnavailable},
	}
}

// registerVerified creates an account and marks it verified.
func (f *fixture) registerVerified(t *testing.T, username, email, password string) Registration {
	t.Helper()
	reg, err := RunRegister(context.Background(), username, email, password, f.registerDeps())
	if err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	if err := RunVerifyOTP(context.Background(), reg.AccountID, reg.Code, f.otpDeps()); err != nil {
		t.Fatalf("RunVerifyOTP error: %v", err)
	}
	return reg
}

func TestRunRegisterCreatesUnverifiedAccountWithCode(t *testing.T) {
	f := newFixture(t)
	reg, err := RunRegister(context.Background(), "alice_1", " Alice@Example.com ", "Secret#123", f.registerDeps())
	if err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	if reg.Email != "alice@example.com" || len(reg.Code) != 6 {
		t.Fatalf("unexpected registration: %+v", reg)
	}

	rec, err := f.store.Get(context.Background(), reg.AccountID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.Verified || rec.OTPResendCount != 0 || !rec.OTPLastSentAt.Equal(f.clock.Now()) {
		t.Fatalf("unexpected record state: %+v", rec)
	}
	if rec.OTPHash == reg.Code || !f.hasher.Verify(reg.Code, rec.OTPHash) {
		t.Fatalf("expected stored digest of the issued code")
	}

	_, err = RunRegister(context.Background(), "alice_2", "alice@example.com", "Secret#123", f.registerDeps())
	if !errors.Is(err, errExists) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}
}

func TestRunRegisterStopsOnValidation(t *testing.T) {
	f := newFixture(t)
	errBad := errors.New("bad username")
	deps := f.registerDeps()
	deps.Validate = func(string, string, string) error { return errBad }

	if _, err := RunRegister(context.Background(), "x", "x@example.com", "pw", deps); !errors.Is(err, errBad) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.store.FindByEmail(context.Background(), "x@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no record after validation failure, got %v", err)
	}
}

func TestRunVerifyOTPCountsFailuresUntilExhausted(t *testing.T) {
	f := newFixture(t)
	reg, err := RunRegister(context.Background(), "bob", "bob@example.com", "Secret#123", f.registerDeps())
	if err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	wrong := "000000"
	if reg.Code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		if err := RunVerifyOTP(context.Background(), reg.AccountID, wrong, f.otpDeps()); !errors.Is(err, errMismatch) {
			t.Fatalf("attempt %d: expected mismatch, got %v", i+1, err)
		}
	}
	if err := RunVerifyOTP(context.Background(), reg.AccountID, reg.Code, f.otpDeps()); !errors.Is(err, errExhausted) {
		t.Fatalf("expected exhaustion even for the right code, got %v", err)
	}

	rec, _ := f.store.Get(context.Background(), reg.AccountID)
	if rec.OTPVerifyAttempts != 5 {
		t.Fatalf("exhausted verify must not mutate, attempts=%d", rec.OTPVerifyAttempts)
	}
}

func TestRunIssueOTPRejectsVerifiedAccount(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "carol", "carol@example.com", "Secret#123")

	f.clock.Advance(2 * time.Minute)
	if _, err := RunIssueOTP(context.Background(), reg.AccountID, f.otpDeps()); !errors.Is(err, errAlready) {
		t.Fatalf("expected already verified, got %v", err)
	}
	if err := RunVerifyOTP(context.Background(), reg.AccountID, reg.Code, f.otpDeps()); !errors.Is(err, errAlready) {
		t.Fatalf("expected already verified on verify, got %v", err)
	}
}

func TestRunVerifyOTPRejectsMalformedWithoutMutation(t *testing.T) {
	f := newFixture(t)
	reg, err := RunRegister(context.Background(), "dave", "dave@example.com", "Secret#123", f.registerDeps())
	if err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	errFormat := errors.New("format")
	deps := f.otpDeps()
	deps.ValidateCode = func(code string) error {
		if !internal.IsNumericCode(code, 6) {
			return errFormat
		}
		return nil
	}

	if err := RunVerifyOTP(context.Background(), reg.AccountID, "12ab56", deps); !errors.Is(err, errFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	rec, _ := f.store.Get(context.Background(), reg.AccountID)
	if rec.OTPVerifyAttempts != 0 {
		t.Fatalf("malformed code must not count, attempts=%d", rec.OTPVerifyAttempts)
	}
}

func TestRunRequestPasswordResetAbsorbsUnknownAndUnverified(t *testing.T) {
	f := newFixture(t)
	slept := 0
	deps := f.resetDeps()
	deps.SleepEnumerationDelay = func(context.Context) error {
		slept++
		return nil
	}

	issue, err := RunRequestPasswordReset(context.Background(), "nobody@example.com", deps)
	if err != nil || issue.Token != "" {
		t.Fatalf("expected silent success for unknown email, got %+v %v", issue, err)
	}

	if _, err := RunRegister(context.Background(), "erin", "erin@example.com", "Secret#123", f.registerDeps()); err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	issue, err = RunRequestPasswordReset(context.Background(), "erin@example.com", deps)
	if err != nil || issue.Token != "" {
		t.Fatalf("expected silent success for unverified account, got %+v %v", issue, err)
	}
	if slept != 2 {
		t.Fatalf("expected enumeration delay on both paths, got %d", slept)
	}
}

func TestPasswordResetGrantIsSingleUseAndPinnedToToken(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "frank", "frank@example.com", "Secret#123")
	ctx := context.Background()

	issue, err := RunRequestPasswordReset(ctx, "FRANK@example.com", f.resetDeps())
	if err != nil || issue.Token == "" {
		t.Fatalf("RunRequestPasswordReset: %+v %v", issue, err)
	}

	grant, err := RunAuthorizePasswordReset(ctx, issue.Token, f.resetDeps())
	if err != nil {
		t.Fatalf("RunAuthorizePasswordReset error: %v", err)
	}
	if grant.AccountID != reg.AccountID {
		t.Fatalf("grant bound to wrong account: %+v", grant)
	}

	accountID, err := RunCompletePasswordReset(ctx, grant.ID, "Better#456", f.resetDeps())
	if err != nil || accountID != reg.AccountID {
		t.Fatalf("RunCompletePasswordReset: %q %v", accountID, err)
	}
	if _, err := RunCompletePasswordReset(ctx, grant.ID, "Again#7890", f.resetDeps()); !errors.Is(err, errNotAuthorized) {
		t.Fatalf("expected reused grant rejection, got %v", err)
	}
	if _, err := RunConsumePasswordReset(ctx, issue.Token, "Again#7890", f.resetDeps()); !errors.Is(err, errInvalidReset) {
		t.Fatalf("expected consumed token rejection, got %v", err)
	}

	rec, _ := f.store.Get(ctx, reg.AccountID)
	if !f.hasher.Verify("Better#456", rec.PasswordHash) {
		t.Fatalf("expected new password to be stored")
	}
}

func TestPasswordResetGrantRejectedAfterTokenReplaced(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "gina", "gina@example.com", "Secret#123")
	ctx := context.Background()

	first, err := RunRequestPasswordReset(ctx, "gina@example.com", f.resetDeps())
	if err != nil {
		t.Fatalf("first request error: %v", err)
	}
	grant, err := RunAuthorizePasswordReset(ctx, first.Token, f.resetDeps())
	if err != nil {
		t.Fatalf("authorize error: %v", err)
	}
	if _, err := RunRequestPasswordReset(ctx, "gina@example.com", f.resetDeps()); err != nil {
		t.Fatalf("second request error: %v", err)
	}

	if _, err := RunCompletePasswordReset(ctx, grant.ID, "Better#456", f.resetDeps()); !errors.Is(err, errInvalidReset) {
		t.Fatalf("expected stale grant rejection, got %v", err)
	}
}

func TestPasswordResetGrantExpires(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "hank", "hank@example.com", "Secret#123")
	ctx := context.Background()

	issue, _ := RunRequestPasswordReset(ctx, "hank@example.com", f.resetDeps())
	grant, err := RunAuthorizePasswordReset(ctx, issue.Token, f.resetDeps())
	if err != nil {
		t.Fatalf("authorize error: %v", err)
	}
	f.clock.Advance(16 * time.Minute)
	if _, err := RunCompletePasswordReset(ctx, grant.ID, "Better#456", f.resetDeps()); !errors.Is(err, errNotAuthorized) {
		t.Fatalf("expected expired grant rejection, got %v", err)
	}
}

func TestRunLoginUnverifiedDoesNotCount(t *testing.T) {
	f := newFixture(t)
	reg, err := RunRegister(context.Background(), "ivan", "ivan@example.com", "Secret#123", f.registerDeps())
	if err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	if _, err := RunLogin(context.Background(), "ivan", "Secret#123", f.loginDeps()); !errors.Is(err, errUnverified) {
		t.Fatalf("expected unverified, got %v", err)
	}
	rec, _ := f.store.Get(context.Background(), reg.AccountID)
	if rec.LoginAttempts != 0 {
		t.Fatalf("unverified login must not count, attempts=%d", rec.LoginAttempts)
	}
}

func TestRunLoginUnknownIdentifierVerifiesDummy(t *testing.T) {
	f := newFixture(t)
	dummy, err := f.hasher.Hash("dummy")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	verified := 0
	deps := f.loginDeps()
	deps.DummyDigest = dummy
	deps.Hasher = countingHasher{Hasher: f.hasher, verified: &verified}

	if _, err := RunLogin(context.Background(), "ghost", "whatever", deps); !errors.Is(err, errCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if verified != 1 {
		t.Fatalf("expected one dummy verification, got %d", verified)
	}
}

func TestRunLoginUpgradesWeakDigest(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "judy", "judy@example.com", "Secret#123")

	strong, err := hasher.NewBcrypt(bcrypt.MinCost + 1)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	deps := f.loginDeps()
	deps.Hasher = strong

	res, err := RunLogin(context.Background(), "judy@EXAMPLE.com", "Secret#123", deps)
	if err != nil {
		t.Fatalf("RunLogin error: %v", err)
	}
	if !res.Rehashed || res.AccountID != reg.AccountID {
		t.Fatalf("expected rehash on login, got %+v", res)
	}
	rec, _ := f.store.Get(context.Background(), reg.AccountID)
	if strong.NeedsUpgrade(rec.PasswordHash) {
		t.Fatalf("expected stored digest at the new cost")
	}
}

func TestRememberTokenRotatesAndRevokes(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "kate", "kate@example.com", "Secret#123")
	ctx := context.Background()

	first, err := RunIssueRememberToken(ctx, reg.AccountID, f.rememberDeps())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	second, err := RunIssueRememberToken(ctx, reg.AccountID, f.rememberDeps())
	if err != nil {
		t.Fatalf("second issue error: %v", err)
	}
	if _, err := RunValidateRememberToken(ctx, first, f.rememberDeps()); !errors.Is(err, errRemember) {
		t.Fatalf("expected rotated token rejection, got %v", err)
	}
	if id, err := RunValidateRememberToken(ctx, second, f.rememberDeps()); err != nil || id != reg.AccountID {
		t.Fatalf("expected current token to validate, got %q %v", id, err)
	}

	if err := RunRevokeRememberToken(ctx, reg.AccountID, f.rememberDeps()); err != nil {
		t.Fatalf("revoke error: %v", err)
	}
	if err := RunRevokeRememberToken(ctx, reg.AccountID, f.rememberDeps()); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
	if _, err := RunValidateRememberToken(ctx, second, f.rememberDeps()); !errors.Is(err, errRemember) {
		t.Fatalf("expected revoked token rejection, got %v", err)
	}
	if _, err := RunValidateRememberToken(ctx, "garbage", f.rememberDeps()); !errors.Is(err, errRemember) {
		t.Fatalf("expected malformed token rejection, got %v", err)
	}
}

func TestFlowsReportNotReadyWithoutDeps(t *testing.T) {
	ctx := context.Background()
	if _, err := RunIssueOTP(ctx, "a", OTPDeps{Errors: OTPErrors{EngineNotReady: errNotReady}}); !errors.Is(err, errNotReady) {
		t.Fatalf("RunIssueOTP: expected not ready, got %v", err)
	}
	if _, err := RunLogin(ctx, "a", "b", LoginDeps{Errors: LoginErrors{EngineNotReady: errNotReady}}); !errors.Is(err, errNotReady) {
		t.Fatalf("RunLogin: expected not ready, got %v", err)
	}
	if _, err := RunRequestPasswordReset(ctx, "a@b.c", PasswordResetDeps{Errors: PasswordResetErrors{EngineNotReady: errNotReady}}); !errors.Is(err, errNotReady) {
		t.Fatalf("RunRequestPasswordReset: expected not ready, got %v", err)
	}
	if _, err := RunRegister(ctx, "a", "b", "c", RegisterDeps{Errors: RegisterErrors{EngineNotReady: errNotReady}}); !errors.Is(err, errNotReady) {
		t.Fatalf("RunRegister: expected not ready, got %v", err)
	}
}

type countingHasher struct {
	hasher.Hasher
	verified *int
}

func (c countingHasher) Verify(secret, digest string) bool {
	*c.verified++
	return c.Hasher.Verify(secret, digest)
}
