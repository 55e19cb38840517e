// Package services holds the shared plumbing for external engine adapters:
// the error taxonomy used to classify failures by pipeline stage and the
// context annotations that tie log lines to a run and file.
package services
