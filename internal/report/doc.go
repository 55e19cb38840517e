// Package report renders per-file results and run summaries for the
// terminal. Output degrades to plain text when stdout is not a tty.
package report
