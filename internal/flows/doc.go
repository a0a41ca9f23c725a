// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRegister, RunIssueOTP, RunVerifyOTP, RunLogin, etc.)
// accepts a typed dependency struct and returns results without side-effects
// beyond those dependencies. This keeps the Engine type thin and lets every
// flow be tested against an in-memory store and a fake clock.
//
// # Architecture boundaries
//
// Flow functions coordinate the credential store, hasher, record limiters,
// audit emission and metrics. They do NOT own any of these resources;
// ownership stays with the Engine. Every read-check-write sequence on a
// credential record runs inside a single store Update callback so that
// concurrent callers observe each other's writes.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goCred (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
//   - Deliver codes or tokens. Delivery belongs to the Engine's notifier.
package flows
