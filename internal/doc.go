// Package internal holds secret generation and token encoding helpers shared
// by the engine and its flows.
//
// # What this package must NOT do
//
//   - Hash or persist secrets.
//   - Use math/rand; every secret comes from crypto/rand.
package internal
