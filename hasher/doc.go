// Package hasher implements the one-way secret hashing used for passwords,
// one-time codes, reset tokens, and remember-me tokens.
//
// # Output format
//
// Argon2id digests are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Bcrypt digests use the standard modular crypt format ($2a$/$2b$).
//
// Every [Hasher] salts each digest and compares in constant time. A malformed
// digest never verifies and is never reported as an error, so callers cannot
// distinguish "corrupt record" from "wrong secret".
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy and code
// format checks are enforced by the Engine.
//
// # What this package must NOT do
//
//   - Enforce a minimum secret length (6-digit codes pass through here).
//   - Import any other goCred package.
//   - Log secrets or digests.
package hasher
