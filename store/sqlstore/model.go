package sqlstore

import (
	"time"

	"github.com/MrEthical07/goCred/store"
)

type credentialRow struct {
	AccountID    string `gorm:"column:account_id;primaryKey;size:64"`
	Username     string `gorm:"column:username;uniqueIndex;size:64;not null"`
	Email        string `gorm:"column:email;uniqueIndex;size:320;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	Verified     bool   `gorm:"column:is_verified;not null;default:false"`

	OTPHash           *string    `gorm:"column:otp_hash"`
	OTPExpiresAt      *time.Time `gorm:"column:otp_expires_at"`
	OTPResendCount    int        `gorm:"column:otp_resend_count;not null;default:0"`
	OTPLastSentAt     *time.Time `gorm:"column:otp_last_sent_at"`
	OTPVerifyAttempts int        `gorm:"column:otp_verify_attempts;not null;default:0"`
	OTPLastAttemptAt  *time.Time `gorm:"column:otp_last_attempt_at"`

	ResetTokenHash    *string    `gorm:"column:reset_token_hash"`
	ResetExpiresAt    *time.Time `gorm:"column:reset_expires_at"`
	ResetRequestCount int        `gorm:"column:reset_request_count;not null;default:0"`
	ResetLastSentAt   *time.Time `gorm:"column:reset_last_sent_at"`

	LoginAttempts      int        `gorm:"column:login_attempts;not null;default:0"`
	LastLoginAttemptAt *time.Time `gorm:"column:last_login_attempt_at"`
	RememberTokenHash  *string    `gorm:"column:remember_token_hash"`

	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	Version     uint64     `gorm:"column:version;not null;default:1"`
}

func (credentialRow) TableName() string { return "credentials" }

type grantRow struct {
	GrantID     string    `gorm:"column:grant_id;primaryKey;size:64"`
	AccountID   string    `gorm:"column:account_id;index;size:64;not null"`
	TokenDigest string    `gorm:"column:token_digest;not null"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index;not null"`
}

func (grantRow) TableName() string { return "reset_grants" }

func rowFromRecord(r *store.Record) credentialRow {
	return credentialRow{
		AccountID:          r.AccountID,
		Username:           r.Username,
		Email:              r.Email,
		PasswordHash:       r.PasswordHash,
		Verified:           r.Verified,
		OTPHash:            strPtr(r.OTPHash),
		OTPExpiresAt:       timePtr(r.OTPExpiresAt),
		OTPResendCount:     r.OTPResendCount,
		OTPLastSentAt:      timePtr(r.OTPLastSentAt),
		OTPVerifyAttempts:  r.OTPVerifyAttempts,
		OTPLastAttemptAt:   timePtr(r.OTPLastAttemptAt),
		ResetTokenHash:     strPtr(r.ResetTokenHash),
		ResetExpiresAt:     timePtr(r.ResetExpiresAt),
		ResetRequestCount:  r.ResetRequestCount,
		ResetLastSentAt:    timePtr(r.ResetLastSentAt),
		LoginAttempts:      r.LoginAttempts,
		LastLoginAttemptAt: timePtr(r.LastLoginAttemptAt),
		RememberTokenHash:  strPtr(r.RememberTokenHash),
		LastLoginAt:        timePtr(r.LastLoginAt),
		CreatedAt:          r.CreatedAt.UTC(),
		Version:            r.Version,
	}
}

func (row credentialRow) record() *store.Record {
	return &store.Record{
		AccountID:          row.AccountID,
		Username:           row.Username,
		Email:              row.Email,
		PasswordHash:       row.PasswordHash,
		Verified:           row.Verified,
		OTPHash:            strVal(row.OTPHash),
		OTPExpiresAt:       timeVal(row.OTPExpiresAt),
		OTPResendCount:     row.OTPResendCount,
		OTPLastSentAt:      timeVal(row.OTPLastSentAt),
		OTPVerifyAttempts:  row.OTPVerifyAttempts,
		OTPLastAttemptAt:   timeVal(row.OTPLastAttemptAt),
		ResetTokenHash:     strVal(row.ResetTokenHash),
		ResetExpiresAt:     timeVal(row.ResetExpiresAt),
		ResetRequestCount:  row.ResetRequestCount,
		ResetLastSentAt:    timeVal(row.ResetLastSentAt),
		LoginAttempts:      row.LoginAttempts,
		LastLoginAttemptAt: timeVal(row.LastLoginAttemptAt),
		RememberTokenHash:  strVal(row.RememberTokenHash),
		LastLoginAt:        timeVal(row.LastLoginAt),
		CreatedAt:          row.CreatedAt.UTC(),
		Version:            row.Version,
	}
}

// mutableColumns lists every column a mutate function may change. Identity
// columns and created_at are never rewritten.
func (row credentialRow) mutableColumns() map[string]any {
	return map[string]any{
		"password_hash":         row.PasswordHash,
		"is_verified":           row.Verified,
		"otp_hash":              row.OTPHash,
		"otp_expires_at":        row.OTPExpiresAt,
		"otp_resend_count":      row.OTPResendCount,
		"otp_last_sent_at":      row.OTPLastSentAt,
		"otp_verify_attempts":   row.OTPVerifyAttempts,
		"otp_last_attempt_at":   row.OTPLastAttemptAt,
		"reset_token_hash":      row.ResetTokenHash,
		"reset_expires_at":      row.ResetExpiresAt,
		"reset_request_count":   row.ResetRequestCount,
		"reset_last_sent_at":    row.ResetLastSentAt,
		"login_attempts":        row.LoginAttempts,
		"last_login_attempt_at": row.LastLoginAttemptAt,
		"remember_token_hash":   row.RememberTokenHash,
		"last_login_at":         row.LastLoginAt,
		"version":               row.Version,
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
