// Package internaldefs names every exported goCred metric once, so the
// Prometheus and OpenTelemetry exporters publish identical series.
package internaldefs
