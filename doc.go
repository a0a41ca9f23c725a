// Package goCred is a credential verification and throttling core. It issues
// and verifies registration codes, password-reset tokens and remember-me
// tokens, and governs login attempts with a decaying temporary lockout.
//
// Every read-decide-write runs as one atomic update of the account's
// credential record through a store.Store, so counters stay correct across
// processes sharing a backend. Engine methods are safe for concurrent use
// after [Builder.Build].
//
// # Architecture boundaries
//
// goCred is the public surface. It exposes [Engine], [Builder], [Config], the
// request and result types, and the error taxonomy. Flow orchestration,
// throttle policies, code and token generation, and audit dispatch live under
// internal/. Storage backends live under store/, delivery under notify/, and
// HTTP adapters under middleware/.
//
// # What this package must NOT do
//
//   - Store or log plaintext codes, reset secrets or remember-me secrets.
//   - Render UI, manage HTTP sessions, or decide how messages are delivered.
//   - Import any sub-package that re-imports goCred (no import cycles).
package goCred
