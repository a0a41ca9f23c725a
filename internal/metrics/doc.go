// Package metrics counts credential decisions. Each MetricID owns one
// cache-line-padded atomic slot, and login latency lands in eight fixed
// buckets from 5ms to +Inf. Writes never allocate.
//
// Exporters under metrics/export read [Snapshot] values; this package does
// no I/O and keeps no global registry.
package metrics
