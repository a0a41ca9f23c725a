// Package middleware exposes HTTP middleware that connects requests to a
// goCred engine.
//
// # Handlers
//
//   - [ClientIP] attaches the caller's address for the per-IP throttle and
//     audit events.
//   - [RequireRemember] admits requests carrying a valid remember-me cookie
//     and injects the account id into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into engine calls. Every credential
// decision is delegated to the engine.
//
// # What this package must NOT do
//
//   - Read or write credential records directly.
//   - Log cookie values or tokens.
//   - Manage sessions beyond the remember-me cookie it validates.
package middleware
