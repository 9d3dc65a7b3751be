// Package stats persists per-request translation statistics in SQLite.
//
// Each finished request is stored as one row: block and chunk counts, retry
// totals, failed chunks, duration, and outcome. Lifetime totals are computed
// with aggregate queries rather than a separate counters table, so the store
// has no update path and records are immutable once written.
//
// The schema is embedded and versioned; a version mismatch refuses to open
// the database rather than migrating in place.
package stats
