package job

import "time"

// Summary is the aggregate result of one invocation. Lines are ordered by
// discovery order regardless of execution interleaving.
type Summary struct {
	RunID      string
	Mode       Mode
	TargetBPM  float64
	InputRoot  string
	OutputRoot string

	Discovered int
	Analyzed   int
	Written    int
	Failed     int
	Skipped    int

	BytesWritten int64
	Elapsed      time.Duration

	Lines []ResultLine
}

// ResultLine is one per-file outcome in discovery order.
type ResultLine struct {
	RelPath    string
	State      State
	BPM        float64
	Confidence float64
	Ratio      float64
	Stage      Stage
	Message    string
}

// Succeeded is the mode-dependent success count.
func (s Summary) Succeeded() int {
	if s.Mode == ModeAnalyze {
		return s.Analyzed
	}
	return s.Written
}

// Complete reports the completeness invariant: every discovered file is
// accounted for by exactly one terminal outcome.
func (s Summary) Complete() bool {
	return s.Succeeded()+s.Failed+s.Skipped == s.Discovered
}
