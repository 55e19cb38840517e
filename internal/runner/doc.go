// Package runner drives discovered files through detection, stretching, and
// writing. Failures are isolated per job: one bad file never aborts the
// batch. Workers only execute engine calls; a single aggregator owns the
// error sink, the ledger, and the summary counters.
package runner
