// Package job models the per-file unit of work: its lifecycle states,
// detection estimate, failure record, and the aggregate run summary.
package job
