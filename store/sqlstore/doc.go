// Package sqlstore persists credential records and reset grants through gorm,
// so any gorm dialector (SQLite, PostgreSQL, MySQL) can back the engine.
//
// Updates are optimistic: the row is read, the mutate function runs, and the
// write is applied with WHERE version = <read version>. A lost race re-reads
// and re-runs the function.
package sqlstore
