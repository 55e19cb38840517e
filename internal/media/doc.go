// Package media identifies candidate audio files and enumerates them under
// an input root while preserving relative paths.
package media
