package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	jobPathKey contextKey = "job_path"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithJobPath annotates context with the relative path of the file being
// processed.
func WithJobPath(ctx context.Context, relPath string) context.Context {
	if relPath == "" {
		return ctx
	}
	return context.WithValue(ctx, jobPathKey, relPath)
}

// JobPathFromContext extracts the job's relative path if present.
func JobPathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobPathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
