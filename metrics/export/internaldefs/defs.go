package internaldefs

import (
	goCred "github.com/MrEthical07/goCred"
)

// CounterDef defines a public type used by goCred APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goCred.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goCred APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goCred.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the credential engine.
var CounterDefs = []CounterDef{
	{ID: goCred.MetricOTPIssued, Name: "gocred_otp_issued_total", Help: "Verification codes issued."},
	{ID: goCred.MetricOTPResendThrottled, Name: "gocred_otp_resend_throttled_total", Help: "Code issuances refused by cooldown or ceiling."},
	{ID: goCred.MetricOTPVerifySuccess, Name: "gocred_otp_verify_success_total", Help: "Successful code verifications."},
	{ID: goCred.MetricOTPVerifyFailure, Name: "gocred_otp_verify_failure_total", Help: "Failed code verifications."},
	{ID: goCred.MetricOTPAttemptsExhausted, Name: "gocred_otp_attempts_exhausted_total", Help: "Verifications refused because the attempt window was exhausted."},
	{ID: goCred.MetricResetRequested, Name: "gocred_password_reset_requested_total", Help: "Reset tokens issued."},
	{ID: goCred.MetricResetThrottled, Name: "gocred_password_reset_throttled_total", Help: "Reset requests refused by the request window."},
	{ID: goCred.MetricResetCompleted, Name: "gocred_password_reset_completed_total", Help: "Completed password resets."},
	{ID: goCred.MetricResetInvalid, Name: "gocred_password_reset_invalid_total", Help: "Reset attempts with invalid or expired tokens."},
	{ID: goCred.MetricLoginSuccess, Name: "gocred_login_success_total", Help: "Successful logins."},
	{ID: goCred.MetricLoginFailure, Name: "gocred_login_failure_total", Help: "Failed logins."},
	{ID: goCred.MetricLoginLockedOut, Name: "gocred_login_locked_out_total", Help: "Logins refused by temporary lockout."},
	{ID: goCred.MetricRememberIssued, Name: "gocred_remember_token_issued_total", Help: "Remember-me tokens issued."},
	{ID: goCred.MetricRememberRejected, Name: "gocred_remember_token_rejected_total", Help: "Remember-me tokens rejected."},
	{ID: goCred.MetricRegistered, Name: "gocred_account_registered_total", Help: "Accounts registered."},
	{ID: goCred.MetricDeliveryFailed, Name: "gocred_delivery_failed_total", Help: "Notifier delivery failures."},
	{ID: goCred.MetricIPThrottled, Name: "gocred_ip_throttled_total", Help: "Requests refused by the per-IP throttle."},
}

// HistogramDefs is an exported constant or variable used by the credential engine.
var HistogramDefs = []HistogramDef{
	{ID: goCred.MetricLoginLatency, Name: "gocred_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the credential engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the credential engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
