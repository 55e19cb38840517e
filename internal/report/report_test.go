package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/logging"
	"github.com/joseluismolina/BPMaster/internal/media"
	"github.com/joseluismolina/BPMaster/internal/report"
)

func TestEmitAnalyzeSummary(t *testing.T) {
	var buf bytes.Buffer
	summary := job.Summary{
		Mode:       job.ModeAnalyze,
		TargetBPM:  140,
		Discovered: 2,
		Analyzed:   1,
		Failed:     1,
		Elapsed:    1500 * time.Millisecond,
		Lines: []job.ResultLine{
			{RelPath: "loops/a.wav", State: job.StateDetected, BPM: 91.3, Confidence: 2.5},
			{RelPath: "bad.wav", State: job.StateFailed, Stage: job.StageDecode, Message: "corrupt header"},
		},
	}

	report.NewEmitter(&buf).Emit(summary)
	out := buf.String()

	for _, want := range []string{
		"loops/a.wav", "91.3", "2.50",
		"failed (decode): corrupt header",
		"Analyzed", "Failed", "errors.log",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("non-tty output must not contain ANSI codes")
	}
}

func TestEmitModifySummaryShowsBytes(t *testing.T) {
	var buf bytes.Buffer
	summary := job.Summary{
		Mode:         job.ModeModify,
		TargetBPM:    140,
		Discovered:   1,
		Written:      1,
		BytesWritten: 2_000_000,
		Lines: []job.ResultLine{
			{RelPath: "a.wav", State: job.StateWritten, BPM: 128, Ratio: 1.09375},
		},
	}

	report.NewEmitter(&buf).Emit(summary)
	out := buf.String()

	for _, want := range []string{"Written", "2.0 MB", "1.0938", "written"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "errors.log") {
		t.Fatal("clean run must not point at errors.log")
	}
}

func TestTableAlignsAndPadsRows(t *testing.T) {
	out := report.Table(
		[]string{"FILE", "BPM"},
		[][]string{{"a.wav", "128.0"}, {"b.wav"}},
		[]report.Alignment{report.AlignLeft, report.AlignRight},
	)
	if !strings.Contains(out, "a.wav") || !strings.Contains(out, "128.0") {
		t.Fatalf("table missing cells:\n%s", out)
	}
	if !strings.Contains(out, "b.wav") {
		t.Fatalf("short rows must be padded:\n%s", out)
	}
}

func TestProgressFallsBackToLogLines(t *testing.T) {
	var buf bytes.Buffer
	p := report.NewProgress(&buf, 3, logging.NewNop())

	j := job.New(media.AudioFileRef{Path: "/in/a.wav", RelPath: "a.wav"}, job.ModeModify, 140)
	p.JobFinished(j)
	p.Finish()

	// A plain buffer is not a terminal, so no bar output is produced.
	if buf.Len() != 0 {
		t.Fatalf("expected no bar output on non-tty writer, got %q", buf.String())
	}
}
