package goCred

import (
	"slices"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.OTP.Digits != 6 || cfg.OTP.TTL != 10*time.Minute {
		t.Fatalf("unexpected OTP defaults %+v", cfg.OTP)
	}
	if cfg.Login.MaxAttempts != 5 || cfg.Login.LockoutDuration != 15*time.Minute {
		t.Fatalf("unexpected login defaults %+v", cfg.Login)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"digits too few", func(c *Config) { c.OTP.Digits = 3 }},
		{"digits too many", func(c *Config) { c.OTP.Digits = 11 }},
		{"otp ttl", func(c *Config) { c.OTP.TTL = 0 }},
		{"resend ceiling", func(c *Config) { c.OTP.ResendCeiling = 0 }},
		{"negative cooldown", func(c *Config) { c.OTP.ResendCooldown = -time.Second }},
		{"verify attempts", func(c *Config) { c.OTP.MaxVerifyAttempts = 0 }},
		{"reset ttl", func(c *Config) { c.PasswordReset.TokenTTL = 0 }},
		{"grant ttl", func(c *Config) { c.PasswordReset.GrantTTL = 0 }},
		{"delay range", func(c *Config) {
			c.PasswordReset.EnumerationDelayMin = time.Second
			c.PasswordReset.EnumerationDelayMax = time.Millisecond
		}},
		{"lockout threshold", func(c *Config) { c.Login.MaxAttempts = 0 }},
		{"lockout duration", func(c *Config) { c.Login.LockoutDuration = 0 }},
		{"remember ttl", func(c *Config) { c.RememberMe.TTL = 0 }},
		{"policy max below min", func(c *Config) { c.PasswordPolicy.MaxLength = 4 }},
		{"argon memory", func(c *Config) { c.Hasher.Memory = 1024 }},
		{"unknown hasher", func(c *Config) { c.Hasher.Algorithm = "md5" }},
		{"bcrypt long passwords", func(c *Config) {
			c.Hasher.Algorithm = "bcrypt"
			c.PasswordPolicy.MaxLength = 100
		}},
		{"throttle budget", func(c *Config) {
			c.IPThrottle.Enabled = true
			c.IPThrottle.MaxRequests = 0
		}},
		{"audit buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected Validate to fail")
			}
			if _, err := New().WithConfig(cfg).Build(); err == nil {
				t.Fatal("expected Build to fail")
			}
		})
	}
}

func TestConfigLint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IPThrottle.Enabled = true
	if ws := cfg.Lint(); len(ws) != 0 {
		t.Fatalf("expected no warnings, got %v", ws.Codes())
	}

	cfg.OTP.TTL = time.Hour
	cfg.OTP.ResendCooldown = 0
	cfg.Login.MaxAttempts = 20
	cfg.Hasher.Algorithm = "bcrypt"
	cfg.IPThrottle.Enabled = false

	codes := cfg.Lint().Codes()
	for _, want := range []string{"otp_ttl_long", "otp_cooldown_disabled", "lockout_threshold_high", "bcrypt_hasher", "ip_throttle_disabled"} {
		if !slices.Contains(codes, want) {
			t.Errorf("missing lint code %q in %v", want, codes)
		}
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderCopiesConfig(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.Login.MaxAttempts = 0

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build should not see later mutations: %v", err)
	}
	defer engine.Close()
}

func TestSecurityReport(t *testing.T) {
	_, rdb := newTestRedis(t)
	env := newTestEnv(t, func(c *Config) {
		c.IPThrottle.Enabled = true
		c.Audit.Enabled = true
	}, func(b *Builder) { b.WithRedis(rdb) })

	r := env.engine.SecurityReport()
	if r.Hasher.Algorithm != "bcrypt" || r.Hasher.Memory != 0 {
		t.Fatalf("unexpected hasher report %+v", r.Hasher)
	}
	if !r.IPThrottleActive || !r.AuditActive || r.MetricsActive {
		t.Fatalf("unexpected flags %+v", r)
	}
	if r.LockoutThreshold != 5 || r.OTPDigits != 6 {
		t.Fatalf("unexpected limits %+v", r)
	}
	// The test config drops the enumeration delay and uses bcrypt.
	if r.EnumerationDelayActive || !slices.Contains(r.LintCodes, "reset_enumeration_delay_disabled") || !slices.Contains(r.LintCodes, "bcrypt_hasher") {
		t.Fatalf("unexpected lint view %+v", r)
	}

	var nilEngine *Engine
	if got := nilEngine.SecurityReport(); got.OTPDigits != 0 {
		t.Fatal("expected zero report from nil engine")
	}
}
