package security

import "time"

// HasherReport describes the digest parameters for new passwords.
type HasherReport struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

type Report struct {
	Hasher HasherReport

	OTPDigits            int
	OTPTTL               time.Duration
	OTPAttemptsPerWindow int
	OTPResendCooldown    time.Duration

	ResetTokenTTL          time.Duration
	ResetGrantTTL          time.Duration
	EnumerationDelayActive bool

	LockoutThreshold int
	LockoutDuration  time.Duration
	RememberTTL      time.Duration

	IPThrottleActive bool
	AuditActive      bool
	MetricsActive    bool

	// LintCodes lists settings that pass validation but are weaker than the
	// defaults.
	LintCodes []string
}

type ReportInput struct {
	Hasher HasherReport

	OTPDigits         int
	OTPTTL            time.Duration
	OTPMaxAttempts    int
	OTPResendCooldown time.Duration

	ResetTokenTTL       time.Duration
	ResetGrantTTL       time.Duration
	EnumerationDelayMax time.Duration

	LoginMaxAttempts int
	LockoutDuration  time.Duration
	RememberTTL      time.Duration

	IPThrottleEnabled bool
	IPThrottleMax     int
	AuditEnabled      bool
	MetricsEnabled    bool

	LintCodes []string
}

func BuildReport(input ReportInput) Report {
	hasher := input.Hasher
	if hasher.Algorithm == "bcrypt" {
		hasher.Memory, hasher.Time, hasher.Parallelism = 0, 0, 0
		hasher.SaltLength, hasher.KeyLength = 0, 0
	} else {
		hasher.BcryptCost = 0
	}

	return Report{
		Hasher:                 hasher,
		OTPDigits:              input.OTPDigits,
		OTPTTL:                 input.OTPTTL,
		OTPAttemptsPerWindow:   input.OTPMaxAttempts,
		OTPResendCooldown:      input.OTPResendCooldown,
		ResetTokenTTL:          input.ResetTokenTTL,
		ResetGrantTTL:          input.ResetGrantTTL,
		EnumerationDelayActive: input.EnumerationDelayMax > 0,
		LockoutThreshold:       input.LoginMaxAttempts,
		LockoutDuration:        input.LockoutDuration,
		RememberTTL:            input.RememberTTL,
		IPThrottleActive:       input.IPThrottleEnabled && input.IPThrottleMax > 0,
		AuditActive:            input.AuditEnabled,
		MetricsActive:          input.MetricsEnabled,
		LintCodes:              append([]string(nil), input.LintCodes...),
	}
}
