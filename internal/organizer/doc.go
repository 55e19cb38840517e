// Package organizer derives destination paths for processed files, mirroring
// the input tree under the output root.
package organizer
