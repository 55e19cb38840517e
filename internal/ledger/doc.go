// Package ledger persists run and per-file outcomes in SQLite so past
// invocations can be inspected with "bpm_master runs". A ledger failure
// never fails a run; the tool degrades to report-only output.
package ledger
