// Package logging constructs the slog loggers used across bpm_master and
// provides shared attribute helpers and field name constants.
package logging
