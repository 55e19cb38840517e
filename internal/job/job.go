package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/joseluismolina/BPMaster/internal/media"
)

// State represents the lifecycle of a processing job.
type State string

const (
	StatePending   State = "pending"
	StateDetected  State = "detected"
	StateStretched State = "stretched"
	StateWritten   State = "written"
	StateFailed    State = "failed"
	StateSkipped   State = "skipped"
)

var allStates = []State{
	StatePending,
	StateDetected,
	StateStretched,
	StateWritten,
	StateFailed,
	StateSkipped,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// transitions lists the forward edges of the job state machine. Terminal
// states have no outgoing edges; a job never regresses.
var transitions = map[State][]State{
	StatePending:   {StateDetected, StateFailed, StateSkipped},
	StateDetected:  {StateStretched, StateWritten, StateFailed},
	StateStretched: {StateWritten, StateFailed},
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// CanTransition reports whether moving from one state to another is a legal
// forward transition.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state has no outgoing transitions.
func IsTerminal(state State) bool {
	return len(transitions[state]) == 0
}

// Mode selects between analysis and modification runs.
type Mode string

const (
	ModeAnalyze Mode = "analyze"
	ModeModify  Mode = "modify"
)

// Estimate is the normalized output of the BPM detection engine. The
// confidence scale is engine-defined; this core carries it through untouched.
type Estimate struct {
	BPM        float64
	Confidence float64
}

// Job is the unit of work for one discovered file. It is created by the
// runner and mutated only by the runner as the file advances through
// detection, stretching, and writing.
type Job struct {
	Source    media.AudioFileRef
	Mode      Mode
	TargetBPM float64
	State     State

	Estimate     *Estimate
	Failure      *FailureRecord
	OutputPath   string
	Ratio        float64
	BytesWritten int64
	Elapsed      time.Duration
}

// New returns a pending job for the given source file.
func New(source media.AudioFileRef, mode Mode, targetBPM float64) *Job {
	return &Job{Source: source, Mode: mode, TargetBPM: targetBPM, State: StatePending}
}

// Advance moves the job to the next state, enforcing monotonic forward
// transitions.
func (j *Job) Advance(next State) error {
	if !CanTransition(j.State, next) {
		return fmt.Errorf("illegal job transition %s -> %s for %s", j.State, next, j.Source.RelPath)
	}
	j.State = next
	return nil
}

// SetFailed marks the job failed with the given record. Failed is terminal;
// marking an already-terminal job failed is a programming error surfaced as
// a no-op on Written/Skipped.
func (j *Job) SetFailed(record FailureRecord) {
	if IsTerminal(j.State) && j.State != StateFailed {
		return
	}
	j.State = StateFailed
	j.Failure = &record
}

// Succeeded reports whether the job reached its terminal success state for
// its mode: Detected in analyze runs, Written in modify runs.
func (j *Job) Succeeded() bool {
	if j.Mode == ModeAnalyze {
		return j.State == StateDetected
	}
	return j.State == StateWritten
}
