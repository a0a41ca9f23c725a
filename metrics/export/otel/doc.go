// Package otel bridges goCred metrics into an OpenTelemetry meter.
//
// [New] registers one Int64ObservableCounter per goCred counter and one
// Int64ObservableGauge per login latency bucket. A single callback reads
// [goCred.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
