package goCred

import (
	"strings"

	"github.com/MrEthical07/goCred/hasher"
	"github.com/MrEthical07/goCred/internal/security"
)

// SecurityReport summarizes which protections the engine runs with.
type SecurityReport = security.Report

// HasherReport describes the digest parameters for new passwords.
type HasherReport = security.HasherReport

// SecurityReport returns the posture derived from the engine's configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	cfg := e.config

	algorithm := hasher.Algorithm(strings.ToLower(cfg.Hasher.Algorithm))
	if algorithm == "" {
		algorithm = hasher.AlgorithmArgon2id
	}

	return security.BuildReport(security.ReportInput{
		Hasher: security.HasherReport{
			Algorithm:   string(algorithm),
			Memory:      cfg.Hasher.Memory,
			Time:        cfg.Hasher.Time,
			Parallelism: cfg.Hasher.Parallelism,
			SaltLength:  cfg.Hasher.SaltLength,
			KeyLength:   cfg.Hasher.KeyLength,
			BcryptCost:  cfg.Hasher.BcryptCost,
		},
		OTPDigits:           cfg.OTP.Digits,
		OTPTTL:              cfg.OTP.TTL,
		OTPMaxAttempts:      cfg.OTP.MaxVerifyAttempts,
		OTPResendCooldown:   cfg.OTP.ResendCooldown,
		ResetTokenTTL:       cfg.PasswordReset.TokenTTL,
		ResetGrantTTL:       cfg.PasswordReset.GrantTTL,
		EnumerationDelayMax: cfg.PasswordReset.EnumerationDelayMax,
		LoginMaxAttempts:    cfg.Login.MaxAttempts,
		LockoutDuration:     cfg.Login.LockoutDuration,
		RememberTTL:         cfg.RememberMe.TTL,
		IPThrottleEnabled:   cfg.IPThrottle.Enabled && e.ipLimiter != nil,
		IPThrottleMax:       cfg.IPThrottle.MaxRequests,
		AuditEnabled:        e.audit != nil,
		MetricsEnabled:      cfg.Metrics.Enabled,
		LintCodes:           cfg.Lint().Codes(),
	})
}
