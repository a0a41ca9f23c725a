// Package pgstore persists credential records and reset grants in PostgreSQL
// through a pgx connection pool.
//
// Updates lock the row with SELECT ... FOR UPDATE inside a transaction, so
// the read-decide-write of a mutate function is serialized per account.
// Schema changes are applied with goose from the embedded migrations.
package pgstore
