// Package store defines the credential record and the persistence contracts
// the engine relies on, plus an in-memory implementation.
//
// # Atomicity contract
//
// [Store.Update] runs a read-decide-write as one atomic step against a single
// record. The mutate function receives a private copy; it reports whether the
// copy should be persisted and returns a domain outcome that Update hands back
// unchanged. Implementations may retry the function on contention, so it must
// be free of side effects other than mutating the record it is given.
//
// Backends live in sub-packages: redisstore (WATCH/MULTI), pgstore (row locks
// in a transaction), and sqlstore (gorm with a version column).
//
// # What this package must NOT do
//
//   - Interpret counters or windows; that is the engine's job.
//   - Import the root goCred package.
package store
