package goCred

import (
	internalmetrics "github.com/MrEthical07/goCred/internal/metrics"
)

// MetricID identifies a single counter or histogram tracked by [Metrics].
type MetricID = internalmetrics.MetricID

const (
	// MetricOTPIssued is an exported constant or variable used by the credential engine.
	MetricOTPIssued = internalmetrics.MetricOTPIssued
	// MetricOTPResendThrottled is an exported constant or variable used by the credential engine.
	MetricOTPResendThrottled = internalmetrics.MetricOTPResendThrottled
	// MetricOTPVerifySuccess is an exported constant or variable used by the credential engine.
	MetricOTPVerifySuccess = internalmetrics.MetricOTPVerifySuccess
	// MetricOTPVerifyFailure is an exported constant or variable used by the credential engine.
	MetricOTPVerifyFailure = internalmetrics.MetricOTPVerifyFailure
	// MetricOTPAttemptsExhausted is an exported constant or variable used by the credential engine.
	MetricOTPAttemptsExhausted = internalmetrics.MetricOTPAttemptsExhausted
	// MetricResetRequested is an exported constant or variable used by the credential engine.
	MetricResetRequested = internalmetrics.MetricResetRequested
	// MetricResetThrottled is an exported constant or variable used by the credential engine.
	MetricResetThrottled = internalmetrics.MetricResetThrottled
	// MetricResetCompleted is an exported constant or variable used by the credential engine.
	MetricResetCompleted = internalmetrics.MetricResetCompleted
	// MetricResetInvalid is an exported constant or variable used by the credential engine.
	MetricResetInvalid = internalmetrics.MetricResetInvalid
	// MetricLoginSuccess is an exported constant or variable used by the credential engine.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the credential engine.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricLoginLockedOut is an exported constant or variable used by the credential engine.
	MetricLoginLockedOut = internalmetrics.MetricLoginLockedOut
	// MetricRememberIssued is an exported constant or variable used by the credential engine.
	MetricRememberIssued = internalmetrics.MetricRememberIssued
	// MetricRememberRejected is an exported constant or variable used by the credential engine.
	MetricRememberRejected = internalmetrics.MetricRememberRejected
	// MetricRegistered is an exported constant or variable used by the credential engine.
	MetricRegistered = internalmetrics.MetricRegistered
	// MetricDeliveryFailed is an exported constant or variable used by the credential engine.
	MetricDeliveryFailed = internalmetrics.MetricDeliveryFailed
	// MetricIPThrottled is an exported constant or variable used by the credential engine.
	MetricIPThrottled = internalmetrics.MetricIPThrottled
	// MetricLoginLatency is an exported constant or variable used by the credential engine.
	MetricLoginLatency = internalmetrics.MetricLoginLatency

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
