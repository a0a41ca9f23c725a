package store

import "time"

// Record is the per-account credential state. Zero times and empty digests
// mean "unset".
type Record struct {
	AccountID    string
	Username     string
	Email        string
	PasswordHash string
	Verified     bool

	OTPHash           string
	OTPExpiresAt      time.Time
	OTPResendCount    int
	OTPLastSentAt     time.Time
	OTPVerifyAttempts int
	OTPLastAttemptAt  time.Time

	ResetTokenHash    string
	ResetExpiresAt    time.Time
	ResetRequestCount int
	ResetLastSentAt   time.Time

	LoginAttempts      int
	LastLoginAttemptAt time.Time
	RememberTokenHash  string

	LastLoginAt time.Time
	CreatedAt   time.Time

	// Version is maintained by the backend and bumped on every write.
	Version uint64
}

// Clone returns a copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// ClearOTP removes the active code and resets every OTP counter and anchor.
func (r *Record) ClearOTP() {
	r.OTPHash = ""
	r.OTPExpiresAt = time.Time{}
	r.OTPResendCount = 0
	r.OTPLastSentAt = time.Time{}
	r.OTPVerifyAttempts = 0
	r.OTPLastAttemptAt = time.Time{}
}

// ClearReset removes the active reset token and resets the request window.
func (r *Record) ClearReset() {
	r.ResetTokenHash = ""
	r.ResetExpiresAt = time.Time{}
	r.ResetRequestCount = 0
	r.ResetLastSentAt = time.Time{}
}

// Grant is a server-held authorization to complete a password reset for one
// account. TokenDigest pins the grant to the reset token that was validated.
type Grant struct {
	ID          string
	AccountID   string
	TokenDigest string
	ExpiresAt   time.Time
}
