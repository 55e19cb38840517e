package job_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/media"
)

func newRef(rel string) media.AudioFileRef {
	return media.AudioFileRef{Path: "/music/" + rel, RelPath: rel}
}

func TestAdvanceEnforcesForwardTransitions(t *testing.T) {
	j := job.New(newRef("a.wav"), job.ModeModify, 140)
	if j.State != job.StatePending {
		t.Fatalf("expected pending start, got %s", j.State)
	}
	for _, next := range []job.State{job.StateDetected, job.StateStretched, job.StateWritten} {
		if err := j.Advance(next); err != nil {
			t.Fatalf("Advance(%s) failed: %v", next, err)
		}
	}
	if err := j.Advance(job.StateDetected); err == nil {
		t.Fatal("expected error advancing out of terminal written state")
	}
}

func TestAdvanceRejectsRegression(t *testing.T) {
	j := job.New(newRef("a.wav"), job.ModeModify, 140)
	if err := j.Advance(job.StateWritten); err == nil {
		t.Fatal("expected error skipping straight from pending to written")
	}
	if err := j.Advance(job.StateDetected); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := j.Advance(job.StatePending); err == nil {
		t.Fatal("expected error regressing to pending")
	}
}

func TestSetFailedIsTerminal(t *testing.T) {
	j := job.New(newRef("bad.flac"), job.ModeModify, 120)
	j.SetFailed(job.NewFailure("bad.flac", job.StageDecode, errors.New("corrupt header")))
	if j.State != job.StateFailed {
		t.Fatalf("expected failed state, got %s", j.State)
	}
	if err := j.Advance(job.StateDetected); err == nil {
		t.Fatal("a failed job must not re-enter the pipeline")
	}
	if j.Failure == nil || j.Failure.Stage != job.StageDecode {
		t.Fatalf("expected decode failure record, got %+v", j.Failure)
	}
}

func TestSetFailedDoesNotOverrideSuccess(t *testing.T) {
	j := job.New(newRef("a.wav"), job.ModeAnalyze, 120)
	if err := j.Advance(job.StateDetected); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := j.Advance(job.StateWritten); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	j.SetFailed(job.NewFailure("a.wav", job.StageWrite, errors.New("late")))
	if j.State != job.StateWritten {
		t.Fatalf("written job must stay written, got %s", j.State)
	}
}

func TestSucceededDependsOnMode(t *testing.T) {
	analyze := job.New(newRef("a.wav"), job.ModeAnalyze, 120)
	if err := analyze.Advance(job.StateDetected); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if !analyze.Succeeded() {
		t.Fatal("detected is terminal success in analyze mode")
	}

	modify := job.New(newRef("a.wav"), job.ModeModify, 120)
	if err := modify.Advance(job.StateDetected); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if modify.Succeeded() {
		t.Fatal("detected is not success in modify mode")
	}
}

func TestParseStateAndStage(t *testing.T) {
	if state, ok := job.ParseState("  Written "); !ok || state != job.StateWritten {
		t.Fatalf("ParseState failed: %v %v", state, ok)
	}
	if _, ok := job.ParseState("exploded"); ok {
		t.Fatal("unknown state must not parse")
	}
	if stage, ok := job.ParseStage("DETECTION"); !ok || stage != job.StageDetection {
		t.Fatalf("ParseStage failed: %v %v", stage, ok)
	}
	if _, ok := job.ParseStage(""); ok {
		t.Fatal("empty stage must not parse")
	}
}

func TestFailureRecordLineIsSelfContained(t *testing.T) {
	record := job.FailureRecord{
		RelPath: "loops/b.wav",
		Stage:   job.StageStretch,
		Message: "ratio must be positive",
		At:      time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	line := record.String()
	for _, fragment := range []string{"2026-03-14T09:26:53Z", "stage=STRETCH", "file=loops/b.wav", "ratio must be positive"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}

func TestSummaryCompleteness(t *testing.T) {
	summary := job.Summary{Mode: job.ModeModify, Discovered: 5, Written: 3, Failed: 1, Skipped: 1}
	if !summary.Complete() {
		t.Fatal("expected complete summary")
	}
	summary.Failed = 0
	if summary.Complete() {
		t.Fatal("expected incomplete summary when a file is unaccounted for")
	}
}
