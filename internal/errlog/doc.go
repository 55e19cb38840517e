// Package errlog persists per-job failure records to an append-only log.
// The log is never truncated between runs, and a sink that cannot reach its
// file degrades to counting instead of dropping records.
package errlog
