package goCred

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func requestReset(t *testing.T, env *testEnv, email string) ResetIssue {
	t.Helper()

	issue, err := env.engine.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: email})
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if !issue.Issued() {
		t.Fatal("expected a reset token")
	}
	return issue
}

func TestPasswordResetSingleUse(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.registerVerified(t, "liam", "liam@example.com")

	issue := requestReset(t, env, " LIAM@example.com ")
	if issue.AccountID != id {
		t.Fatalf("unexpected account %q", issue.AccountID)
	}
	msg, _ := env.notes.Last()
	if !strings.Contains(msg.Body, issue.Token) {
		t.Fatal("expected the token in the reset message")
	}

	got, err := env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: issue.Token, NewPassword: "N3w-secret"})
	if err != nil || got != id {
		t.Fatalf("ConsumePasswordReset = %q, %v", got, err)
	}
	rec := env.record(t, id)
	if rec.ResetTokenHash != "" || rec.ResetRequestCount != 0 {
		t.Fatalf("expected reset state cleared, got %+v", rec)
	}

	_, err = env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: issue.Token, NewPassword: "An0ther-one"})
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected replay to fail with ErrInvalidOrExpired, got %v", err)
	}

	if _, err := env.engine.Login(ctx, LoginRequest{Identifier: "liam", Password: "N3w-secret"}); err != nil {
		t.Fatalf("expected login with new password, got %v", err)
	}
	if _, err := env.engine.Login(ctx, LoginRequest{Identifier: "liam", Password: testPassword}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
}

func TestPasswordResetAbsorbsUnknownAndUnverified(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "mona", "mona@example.com")
	env.notes.Reset()

	slept := 0
	env.engine.sleep = func(context.Context, time.Duration) error {
		slept++
		return nil
	}

	for _, email := range []string{"nobody@example.com", "mona@example.com"} {
		issue, err := env.engine.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: email})
		if err != nil || issue.Issued() || issue != (ResetIssue{}) {
			t.Fatalf("%s: expected zero issue and nil error, got %+v %v", email, issue, err)
		}
	}
	if slept != 2 {
		t.Fatalf("expected the enumeration delay twice, got %d", slept)
	}
	if n := len(env.notes.Messages()); n != 0 {
		t.Fatalf("expected no deliveries, got %d", n)
	}
}

func TestPasswordResetEnumerationDelayWithinBounds(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.PasswordReset.EnumerationDelayMin = 20 * time.Millisecond
		c.PasswordReset.EnumerationDelayMax = 40 * time.Millisecond
	})

	var got []time.Duration
	env.engine.sleep = func(_ context.Context, d time.Duration) error {
		got = append(got, d)
		return nil
	}
	for i := 0; i < 20; i++ {
		if err := env.engine.sleepEnumerationDelay(context.Background()); err != nil {
			t.Fatalf("sleepEnumerationDelay failed: %v", err)
		}
	}
	for _, d := range got {
		if d < 20*time.Millisecond || d > 40*time.Millisecond {
			t.Fatalf("delay %v outside [20ms, 40ms]", d)
		}
	}
}

func TestPasswordResetCeiling(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.PasswordReset.RequestCeiling = 5 })
	env.registerVerified(t, "nina", "nina@example.com")

	for i := 0; i < 5; i++ {
		requestReset(t, env, "nina@example.com")
		env.clock.Advance(time.Minute)
	}
	_, err := env.engine.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "nina@example.com"})
	if !errors.Is(err, ErrResendThrottled) {
		t.Fatalf("expected 6th request throttled, got %v", err)
	}

	env.clock.Advance(time.Hour)
	requestReset(t, env, "nina@example.com")
}

func TestPasswordResetDefaultCeiling(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerVerified(t, "olga", "olga@example.com")

	for i := 0; i < 3; i++ {
		requestReset(t, env, "olga@example.com")
	}
	_, err := env.engine.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "olga@example.com"})
	if !errors.Is(err, ErrResendThrottled) {
		t.Fatalf("expected 4th request throttled, got %v", err)
	}
}

func TestPasswordResetExpiryAndReplacement(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.registerVerified(t, "pete", "pete@example.com")

	first := requestReset(t, env, "pete@example.com")
	second := requestReset(t, env, "pete@example.com")

	_, err := env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: first.Token, NewPassword: "N3w-secret"})
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected replaced token rejected, got %v", err)
	}

	env.clock.Advance(time.Hour + time.Second)
	_, err = env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: second.Token, NewPassword: "N3w-secret"})
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}

	for _, token := range []string{"", "garbage", strings.Repeat("A", 64)} {
		_, err = env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: token, NewPassword: "N3w-secret"})
		if !errors.Is(err, ErrInvalidOrExpired) {
			t.Fatalf("token %q: expected ErrInvalidOrExpired, got %v", token, err)
		}
	}
}

func TestPasswordResetWeakPasswordKeepsToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.registerVerified(t, "quinn", "quinn@example.com")
	issue := requestReset(t, env, "quinn@example.com")

	_, err := env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: issue.Token, NewPassword: "weak"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: issue.Token, NewPassword: "N3w-secret"}); err != nil {
		t.Fatalf("expected token still usable, got %v", err)
	}
}

func TestPasswordResetGrantFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.registerVerified(t, "rita", "rita@example.com")
	issue := requestReset(t, env, "rita@example.com")

	grant, err := env.engine.AuthorizePasswordReset(ctx, issue.Token)
	if err != nil {
		t.Fatalf("AuthorizePasswordReset failed: %v", err)
	}
	if grant.AccountID != id || grant.ID == "" {
		t.Fatalf("unexpected grant %+v", grant)
	}
	if rec := env.record(t, id); rec.ResetTokenHash == "" {
		t.Fatal("authorize must not consume the token")
	}

	_, err = env.engine.CompletePasswordReset(ctx, CompletePasswordResetRequest{GrantID: grant.ID, NewPassword: "short"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	got, err := env.engine.CompletePasswordReset(ctx, CompletePasswordResetRequest{GrantID: grant.ID, NewPassword: "N3w-secret"})
	if err != nil || got != id {
		t.Fatalf("CompletePasswordReset = %q, %v", got, err)
	}

	_, err = env.engine.CompletePasswordReset(ctx, CompletePasswordResetRequest{GrantID: grant.ID, NewPassword: "N3w-secret"})
	if !errors.Is(err, ErrResetNotAuthorized) {
		t.Fatalf("expected used grant rejected, got %v", err)
	}
	_, err = env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: issue.Token, NewPassword: "N3w-secret"})
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected token consumed by grant completion, got %v", err)
	}
}

func TestPasswordResetGrantExpires(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.registerVerified(t, "sam", "sam@example.com")
	issue := requestReset(t, env, "sam@example.com")

	grant, err := env.engine.AuthorizePasswordReset(ctx, issue.Token)
	if err != nil {
		t.Fatalf("AuthorizePasswordReset failed: %v", err)
	}

	env.clock.Advance(16 * time.Minute)
	_, err = env.engine.CompletePasswordReset(ctx, CompletePasswordResetRequest{GrantID: grant.ID, NewPassword: "N3w-secret"})
	if !errors.Is(err, ErrResetNotAuthorized) {
		t.Fatalf("expected expired grant rejected, got %v", err)
	}
	if _, err := env.engine.AuthorizePasswordReset(ctx, "not-a-token"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected malformed token rejected, got %v", err)
	}
}

func TestPasswordResetClearsLockoutAndRememberToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.registerVerified(t, "tina", "tina@example.com")

	res, err := env.engine.Login(ctx, LoginRequest{Identifier: "tina", Password: testPassword, RememberMe: true})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		_, _ = env.engine.Login(ctx, LoginRequest{Identifier: "tina", Password: "Wr0ng-pass"})
	}
	if state, _ := env.engine.AccountState(ctx, id); !state.Locked {
		t.Fatal("expected account locked")
	}

	issue := requestReset(t, env, "tina@example.com")
	if _, err := env.engine.ConsumePasswordReset(ctx, ConsumePasswordResetRequest{Token: issue.Token, NewPassword: "N3w-secret"}); err != nil {
		t.Fatalf("ConsumePasswordReset failed: %v", err)
	}

	if _, err := env.engine.ValidateRememberToken(ctx, res.RememberToken); !errors.Is(err, ErrRememberTokenInvalid) {
		t.Fatalf("expected remember token invalidated by reset, got %v", err)
	}
	if _, err := env.engine.Login(ctx, LoginRequest{Identifier: "tina", Password: "N3w-secret"}); err != nil {
		t.Fatalf("expected lockout cleared by reset, got %v", err)
	}
}

func TestPasswordResetDeliveryLink(t *testing.T) {
	env := newTestEnv(t, nil, func(b *Builder) {
		b.WithResetLink(func(token string) string { return "https://app.example.com/reset?token=" + token })
	})
	env.registerVerified(t, "uma", "uma@example.com")
	issue := requestReset(t, env, "uma@example.com")

	msg, ok := env.notes.Last()
	if !ok || !strings.Contains(msg.Body, "https://app.example.com/reset?token="+issue.Token) {
		t.Fatalf("expected reset link in message, got %+v", msg)
	}
	if strings.Contains(msg.Body, "%!") {
		t.Fatalf("malformed message body %q", msg.Body)
	}
}
