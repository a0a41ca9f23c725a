package goCred

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/store/redisstore"
	"github.com/MrEthical07/goCred/store/sqlstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBuildRequiresRedisForIPThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.IPThrottle.Enabled = true

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to fail without a redis client")
	}
}

func TestIPThrottleLimitsPerScope(t *testing.T) {
	mr, rdb := newTestRedis(t)
	env := newTestEnv(t, func(c *Config) {
		c.IPThrottle.Enabled = true
		c.IPThrottle.MaxRequests = 3
		c.IPThrottle.Window = time.Minute
	}, func(b *Builder) {
		b.WithRedis(rdb).WithMetricsEnabled(true)
	})

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	for i := 0; i < 3; i++ {
		_, err := env.engine.Login(ctx, LoginRequest{Identifier: "nobody", Password: testPassword})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if _, err := env.engine.Login(ctx, LoginRequest{Identifier: "nobody", Password: testPassword}); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}

	// Scopes and addresses are budgeted separately.
	if _, err := env.engine.RequestPasswordReset(ctx, PasswordResetRequest{Email: "nobody@example.com"}); err != nil {
		t.Fatalf("reset scope should be independent, got %v", err)
	}
	other := WithClientIP(context.Background(), "203.0.113.8")
	if _, err := env.engine.Login(other, LoginRequest{Identifier: "nobody", Password: testPassword}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("other address should not be throttled, got %v", err)
	}

	// Without an address the throttle does not apply.
	if _, err := env.engine.Login(context.Background(), LoginRequest{Identifier: "nobody", Password: testPassword}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected unthrottled login without an address, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if _, err := env.engine.Login(ctx, LoginRequest{Identifier: "nobody", Password: testPassword}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected budget restored after the window, got %v", err)
	}

	if got := env.engine.MetricsSnapshot().Counters[MetricIPThrottled]; got != 1 {
		t.Fatalf("expected 1 throttled request, got %d", got)
	}
	if !mr.Exists("gcip:login:203.0.113.7") {
		t.Fatal("expected throttle key under the configured prefix")
	}
}

func TestIPThrottleFailsOpenWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()

	env := newTestEnv(t, func(c *Config) {
		c.IPThrottle.Enabled = true
		c.IPThrottle.MaxRequests = 1
	}, func(b *Builder) { b.WithRedis(rdb) })
	id := env.registerVerified(t, "carl", "carl@example.com")

	mr.Close()

	ctx := WithClientIP(context.Background(), "198.51.100.1")
	for i := 0; i < 3; i++ {
		res, err := env.engine.Login(ctx, LoginRequest{Identifier: "carl", Password: testPassword})
		if err != nil || res.AccountID != id {
			t.Fatalf("attempt %d: Login = %+v, %v", i+1, res, err)
		}
	}
}

func TestEngineOnRedisStore(t *testing.T) {
	_, rdb := newTestRedis(t)
	env := newTestEnv(t, nil, func(b *Builder) {
		b.WithStore(redisstore.New(rdb, "gc")).WithGrantStore(redisstore.NewGrants(rdb, "gc"))
	})
	runEndToEnd(t, env)
}

func TestEngineOnSQLStore(t *testing.T) {
	db, err := sqlstore.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	s, err := sqlstore.New(db)
	if err != nil {
		t.Fatalf("sqlstore.New failed: %v", err)
	}

	env := newTestEnv(t, nil, func(b *Builder) {
		b.WithStore(s).WithGrantStore(s.Grants())
	})
	runEndToEnd(t, env)
}

// runEndToEnd drives registration, verification, login, lockout and a grant
// based reset against whatever store env was built with.
func runEndToEnd(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	reg, err := env.engine.Register(ctx, RegisterRequest{Username: "dora", Email: "dora@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := env.engine.Register(ctx, RegisterRequest{Username: "dora", Email: "other@example.com", Password: testPassword}); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: wrongCode(reg.OTP.Code)}); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	if err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code}); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		_, _ = env.engine.Login(ctx, LoginRequest{Identifier: "dora", Password: "Wr0ng-pass"})
	}
	if _, err := env.engine.Login(ctx, LoginRequest{Identifier: "dora@example.com", Password: testPassword}); !errors.Is(err, ErrLockedOut) {
		t.Fatalf("expected ErrLockedOut, got %v", err)
	}

	issue, err := env.engine.RequestPasswordReset(ctx, PasswordResetRequest{Email: "dora@example.com"})
	if err != nil || !issue.Issued() {
		t.Fatalf("RequestPasswordReset = %+v, %v", issue, err)
	}
	grant, err := env.engine.AuthorizePasswordReset(ctx, issue.Token)
	if err != nil {
		t.Fatalf("AuthorizePasswordReset failed: %v", err)
	}
	if _, err := env.engine.CompletePasswordReset(ctx, CompletePasswordResetRequest{GrantID: grant.ID, NewPassword: "N3w-Passw0rd"}); err != nil {
		t.Fatalf("CompletePasswordReset failed: %v", err)
	}
	if _, err := env.engine.CompletePasswordReset(ctx, CompletePasswordResetRequest{GrantID: grant.ID, NewPassword: "N3w-Passw0rd"}); !errors.Is(err, ErrResetNotAuthorized) {
		t.Fatalf("expected grant to be single use, got %v", err)
	}

	res, err := env.engine.Login(ctx, LoginRequest{Identifier: "dora", Password: "N3w-Passw0rd", RememberMe: true})
	if err != nil {
		t.Fatalf("Login after reset failed: %v", err)
	}
	if got, err := env.engine.ValidateRememberToken(ctx, res.RememberToken); err != nil || got != reg.AccountID {
		t.Fatalf("ValidateRememberToken = %q, %v", got, err)
	}
}
