package goCred

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goCred/hasher"
)

// Config defines a public type used by goCred APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OTP            OTPConfig
	PasswordReset  PasswordResetConfig
	Login          LoginConfig
	RememberMe     RememberMeConfig
	PasswordPolicy PasswordPolicyConfig
	Hasher         HasherConfig
	IPThrottle     IPThrottleConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by goCred APIs.
//
// Resend and verify counters are windowed: a counter whose anchor is older
// than its window is treated as zero on the next evaluation.
type OTPConfig struct {
	Digits            int
	TTL               time.Duration
	ResendCeiling     int
	ResendWindow      time.Duration
	ResendCooldown    time.Duration
	MaxVerifyAttempts int
	VerifyWindow      time.Duration
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig defines a public type used by goCred APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	TokenTTL        time.Duration
	RequestCeiling  int
	RequestWindow   time.Duration
	RequestCooldown time.Duration
	GrantTTL        time.Duration
	// Unknown or unverified addresses wait a random delay in
	// [EnumerationDelayMin, EnumerationDelayMax] before the generic success.
	EnumerationDelayMin time.Duration
	EnumerationDelayMax time.Duration
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig defines a public type used by goCred APIs.
//
// LoginConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginConfig struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// RememberMeConfig defines a public type used by goCred APIs.
//
// TTL is advisory: the engine never expires remember tokens, the cookie
// layer uses TTL as the cookie lifetime.
type RememberMeConfig struct {
	TTL time.Duration
}

/*
====================================
PASSWORD POLICY CONFIG
====================================
*/

// PasswordPolicyConfig defines a public type used by goCred APIs.
//
// PasswordPolicyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordPolicyConfig struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

/*
====================================
HASHER CONFIG
====================================
*/

// HasherConfig defines a public type used by goCred APIs.
//
// Algorithm is "argon2id" (default) or "bcrypt". The argon2 fields are
// ignored for bcrypt and BcryptCost is ignored for argon2id.
type HasherConfig struct {
	Algorithm   string
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

/*
====================================
IP THROTTLE CONFIG
====================================
*/

// IPThrottleConfig defines a public type used by goCred APIs.
//
// When Enabled, the builder requires a Redis client.
type IPThrottleConfig struct {
	Enabled     bool
	RedisPrefix string
	MaxRequests int
	Window      time.Duration
}

/*
====================================
AUDIT & METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by goCred APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goCred APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig returns a fresh copy of the documented defaults on every call.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Digits:            6,
			TTL:               10 * time.Minute,
			ResendCeiling:     5,
			ResendWindow:      time.Hour,
			ResendCooldown:    60 * time.Second,
			MaxVerifyAttempts: 5,
			VerifyWindow:      time.Hour,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL:            time.Hour,
			RequestCeiling:      3,
			RequestWindow:       time.Hour,
			RequestCooldown:     0,
			GrantTTL:            15 * time.Minute,
			EnumerationDelayMin: 20 * time.Millisecond,
			EnumerationDelayMax: 40 * time.Millisecond,
		},
		Login: LoginConfig{
			MaxAttempts:     5,
			LockoutDuration: 15 * time.Minute,
		},
		RememberMe: RememberMeConfig{
			TTL: 30 * 24 * time.Hour,
		},
		PasswordPolicy: PasswordPolicyConfig{
			MinLength:      8,
			MaxLength:      72,
			RequireUpper:   true,
			RequireLower:   true,
			RequireDigit:   true,
			RequireSpecial: true,
		},
		Hasher: HasherConfig{
			Algorithm:   string(hasher.AlgorithmArgon2id),
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		IPThrottle: IPThrottleConfig{
			Enabled:     false,
			RedisPrefix: "gcip",
			MaxRequests: 20,
			Window:      time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

func (c HasherConfig) hasherConfig() hasher.Config {
	return hasher.Config{
		Algorithm:   hasher.Algorithm(strings.ToLower(c.Algorithm)),
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
		Cost:        c.BcryptCost,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// OTP
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.ResendCeiling <= 0 {
		return errors.New("OTP ResendCeiling must be > 0")
	}
	if c.OTP.ResendWindow <= 0 {
		return errors.New("OTP ResendWindow must be > 0")
	}
	if c.OTP.ResendCooldown < 0 {
		return errors.New("OTP ResendCooldown must be >= 0")
	}
	if c.OTP.MaxVerifyAttempts <= 0 {
		return errors.New("OTP MaxVerifyAttempts must be > 0")
	}
	if c.OTP.VerifyWindow <= 0 {
		return errors.New("OTP VerifyWindow must be > 0")
	}

	// Password Reset
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}
	if c.PasswordReset.RequestCeiling <= 0 {
		return errors.New("PasswordReset RequestCeiling must be > 0")
	}
	if c.PasswordReset.RequestWindow <= 0 {
		return errors.New("PasswordReset RequestWindow must be > 0")
	}
	if c.PasswordReset.RequestCooldown < 0 {
		return errors.New("PasswordReset RequestCooldown must be >= 0")
	}
	if c.PasswordReset.GrantTTL <= 0 {
		return errors.New("PasswordReset GrantTTL must be > 0")
	}
	if c.PasswordReset.EnumerationDelayMin < 0 || c.PasswordReset.EnumerationDelayMax < c.PasswordReset.EnumerationDelayMin {
		return errors.New("PasswordReset EnumerationDelayMax must be >= EnumerationDelayMin >= 0")
	}

	// Login
	if c.Login.MaxAttempts <= 0 {
		return errors.New("Login MaxAttempts must be > 0")
	}
	if c.Login.LockoutDuration <= 0 {
		return errors.New("Login LockoutDuration must be > 0")
	}
	if c.RememberMe.TTL <= 0 {
		return errors.New("RememberMe TTL must be > 0")
	}

	// Password Policy
	if c.PasswordPolicy.MinLength <= 0 {
		return errors.New("PasswordPolicy MinLength must be > 0")
	}
	if c.PasswordPolicy.MaxLength < c.PasswordPolicy.MinLength {
		return errors.New("PasswordPolicy MaxLength must be >= MinLength")
	}

	// Hasher
	switch hasher.Algorithm(strings.ToLower(c.Hasher.Algorithm)) {
	case hasher.AlgorithmArgon2id, "":
		if c.Hasher.Memory < 8*1024 {
			return errors.New("Hasher Memory must be >= 8192 KB")
		}
		if c.Hasher.Time < 1 {
			return errors.New("Hasher Time must be >= 1")
		}
		if c.Hasher.Parallelism < 1 {
			return errors.New("Hasher Parallelism must be >= 1")
		}
		if c.Hasher.SaltLength < 16 {
			return errors.New("Hasher SaltLength must be >= 16")
		}
		if c.Hasher.KeyLength < 16 {
			return errors.New("Hasher KeyLength must be >= 16")
		}
	case hasher.AlgorithmBcrypt:
		if c.PasswordPolicy.MaxLength > 72 {
			return errors.New("PasswordPolicy MaxLength must be <= 72 with bcrypt")
		}
	default:
		return errors.New("Hasher Algorithm must be 'argon2id' or 'bcrypt'")
	}

	// IP Throttle
	if c.IPThrottle.Enabled {
		if c.IPThrottle.MaxRequests <= 0 {
			return errors.New("IPThrottle MaxRequests must be > 0")
		}
		if c.IPThrottle.Window <= 0 {
			return errors.New("IPThrottle Window must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning defines a public type used by goCred APIs.
//
// A warning marks a setting that is valid but weaker than the defaults.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings defines a public type used by goCred APIs.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint describes the lint operation and its observable behavior.
//
// Lint reports settings that pass Validate but weaken abuse resistance.
// Lint does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if c.OTP.TTL > 15*time.Minute {
		add("otp_ttl_long", "OTP TTL above 15m widens the guessing window")
	}
	if c.OTP.MaxVerifyAttempts > 10 {
		add("otp_attempts_high", "more than 10 verify attempts per window")
	}
	if c.OTP.ResendCooldown == 0 {
		add("otp_cooldown_disabled", "codes can be resent back to back")
	}
	if c.PasswordReset.TokenTTL > 24*time.Hour {
		add("reset_ttl_long", "reset tokens live longer than a day")
	}
	if c.PasswordReset.EnumerationDelayMax == 0 {
		add("reset_enumeration_delay_disabled", "reset requests for unknown addresses return immediately")
	}
	if c.Login.MaxAttempts > 10 {
		add("lockout_threshold_high", "more than 10 failed logins before lockout")
	}
	if c.PasswordPolicy.MinLength < 8 {
		add("password_min_length_short", "passwords shorter than 8 characters are allowed")
	}
	if hasher.Algorithm(strings.ToLower(c.Hasher.Algorithm)) == hasher.AlgorithmBcrypt {
		add("bcrypt_hasher", "bcrypt selected; argon2id is preferred for new digests")
	}
	if !c.IPThrottle.Enabled {
		add("ip_throttle_disabled", "per-IP request throttling is off")
	}
	return ws
}
