package job

import (
	"fmt"
	"strings"
	"time"
)

// Stage identifies where in the pipeline a failure happened.
type Stage string

const (
	StageDiscovery Stage = "discovery"
	StageDecode    Stage = "decode"
	StageDetection Stage = "detection"
	StageStretch   Stage = "stretch"
	StageWrite     Stage = "write"
)

var allStages = []Stage{StageDiscovery, StageDecode, StageDetection, StageStretch, StageWrite}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	for _, stage := range allStages {
		if stage == normalized {
			return stage, true
		}
	}
	return "", false
}

// FailureRecord captures one job's failure. Records are self-contained: a
// single rendered line carries everything needed to interpret the failure.
type FailureRecord struct {
	RelPath string
	Stage   Stage
	Message string
	At      time.Time
}

// NewFailure builds a failure record stamped with the current time.
func NewFailure(relPath string, stage Stage, err error) FailureRecord {
	message := "unknown failure"
	if err != nil {
		message = err.Error()
	}
	return FailureRecord{
		RelPath: relPath,
		Stage:   stage,
		Message: message,
		At:      time.Now().UTC(),
	}
}

// String renders the record as one durable log line.
func (r FailureRecord) String() string {
	at := r.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return fmt.Sprintf("%s ERROR stage=%s file=%s %s",
		at.UTC().Format(time.RFC3339), strings.ToUpper(string(r.Stage)), r.RelPath, r.Message)
}
