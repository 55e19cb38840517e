package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joseluismolina/BPMaster/internal/job"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrDecode        = errors.New("decode error")
	ErrDetection     = errors.New("detection error")
	ErrStretch       = errors.New("stretch error")
	ErrWrite         = errors.New("write error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStage maps a classified adapter error to the failure stage recorded
// against the job. Unclassified errors from the write path default to the
// stage the caller supplies via fallback.
func FailureStage(err error, fallback job.Stage) job.Stage {
	switch {
	case errors.Is(err, ErrDecode):
		return job.StageDecode
	case errors.Is(err, ErrDetection):
		return job.StageDetection
	case errors.Is(err, ErrStretch), errors.Is(err, ErrValidation):
		return job.StageStretch
	case errors.Is(err, ErrWrite):
		return job.StageWrite
	default:
		return fallback
	}
}

// IsConfiguration reports whether an error is fatal to the whole run rather
// than scoped to one job.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
