// Package limiters implements the per-account throttle policies: OTP resend
// and attempt windows, reset request windows, and login lockout.
//
// # Architecture boundaries
//
// Every limiter is a pure policy over a [store.Record]. Decisions and counter
// updates happen on the record a flow is mutating inside store.Update, so the
// read-decide-write of a throttle is always atomic with the action it guards.
//
// # What this package must NOT do
//
//   - Perform I/O or read the clock.
//   - Import goCred (to avoid import cycles).
package limiters
