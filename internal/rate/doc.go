// Package rate provides the rolling-window arithmetic shared by every
// throttle, plus a Redis fixed-window limiter for per-client budgets.
//
// # Window semantics
//
// [Effective] is pure: given a stored count, the time of the last event, the
// window span, and the current time, it returns the count to use before
// recording a new event. Windows roll forward lazily when touched; nothing
// expires in the background.
//
// [Limiter] uses INCR + conditional EXPIRE on first hit. Keys are
// <prefix>:<scope>:<ip>.
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Read the clock; callers supply now.
package rate
