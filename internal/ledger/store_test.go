package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/media"
	"github.com/joseluismolina/BPMaster/internal/testsupport"
)

func TestRunRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	if err := store.BeginRun(ctx, "run-1", job.ModeModify, 140, "/music/in", "/music/out", started); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	good := job.New(media.AudioFileRef{Path: "/music/in/a.wav", RelPath: "a.wav"}, job.ModeModify, 140)
	good.Estimate = &job.Estimate{BPM: 128, Confidence: 3.5}
	good.Ratio = 1.09375
	good.State = job.StateWritten
	good.Elapsed = 1500 * time.Millisecond
	if err := store.RecordJob(ctx, "run-1", good); err != nil {
		t.Fatalf("RecordJob failed: %v", err)
	}

	bad := job.New(media.AudioFileRef{Path: "/music/in/b.wav", RelPath: "b.wav"}, job.ModeModify, 140)
	failure := job.NewFailure("b.wav", job.StageDecode, fmt.Errorf("corrupt header"))
	bad.SetFailed(failure)
	if err := store.RecordJob(ctx, "run-1", bad); err != nil {
		t.Fatalf("RecordJob failed: %v", err)
	}

	summary := job.Summary{
		RunID: "run-1", Mode: job.ModeModify, Discovered: 2,
		Written: 1, Failed: 1, BytesWritten: 70000,
	}
	if err := store.FinishRun(ctx, summary, started.Add(time.Minute)); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	rec := runs[0]
	if rec.ID != "run-1" || rec.Mode != job.ModeModify || rec.TargetBPM != 140 {
		t.Fatalf("unexpected run record: %+v", rec)
	}
	if rec.Discovered != 2 || rec.Succeeded != 1 || rec.Failed != 1 || rec.BytesWritten != 70000 {
		t.Fatalf("unexpected counts: %+v", rec)
	}
	if rec.FinishedAt == nil || !rec.FinishedAt.Equal(started.Add(time.Minute)) {
		t.Fatalf("unexpected finished timestamp: %v", rec.FinishedAt)
	}

	jobs, err := store.JobsForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("JobsForRun failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 job records, got %d", len(jobs))
	}
	if jobs[0].RelPath != "a.wav" || jobs[0].State != job.StateWritten {
		t.Fatalf("unexpected first job: %+v", jobs[0])
	}
	if jobs[0].BPM == nil || *jobs[0].BPM != 128 || jobs[0].Ratio == nil || *jobs[0].Ratio != 1.09375 {
		t.Fatalf("expected estimate persisted: %+v", jobs[0])
	}
	if jobs[1].FailureStage != "decode" || jobs[1].FailureMessage != "corrupt header" {
		t.Fatalf("expected decode failure persisted: %+v", jobs[1])
	}
	if jobs[1].BPM != nil {
		t.Fatalf("failed decode must have no estimate: %+v", jobs[1])
	}
}

func TestRecentRunsOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("run-%d", i)
		if err := store.BeginRun(ctx, id, job.ModeAnalyze, 120, "/in", "", base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit honored, got %d runs", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestBeginRunRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if err := store.BeginRun(context.Background(), "  ", job.ModeAnalyze, 120, "/in", "", time.Now()); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenLedger(t, cfg)
	if err := first.BeginRun(context.Background(), "run-1", job.ModeAnalyze, 120, "/in", "", time.Now()); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenLedger(t, cfg)
	runs, err := second.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run after reopen, got %d", len(runs))
	}
}
