// Package detect wraps the external BPM detection engine behind a narrow
// client interface and normalizes its output into a job.Estimate.
package detect
