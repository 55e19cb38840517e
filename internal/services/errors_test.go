package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/services"
)

func TestWrapTagsAndDescribes(t *testing.T) {
	inner := errors.New("exit status 2")
	err := services.Wrap(services.ErrDecode, "detect", "run engine", "unreadable input", inner)
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode classification, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped cause preserved, got %v", err)
	}
	for _, fragment := range []string{"detect", "run engine", "unreadable input"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "stretch", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool default, got %v", err)
	}
}

func TestFailureStageMapping(t *testing.T) {
	cases := []struct {
		err  error
		want job.Stage
	}{
		{services.Wrap(services.ErrDecode, "detect", "", "", nil), job.StageDecode},
		{services.Wrap(services.ErrDetection, "detect", "", "", nil), job.StageDetection},
		{services.Wrap(services.ErrStretch, "stretch", "", "", nil), job.StageStretch},
		{services.Wrap(services.ErrValidation, "stretch", "", "bad ratio", nil), job.StageStretch},
		{services.Wrap(services.ErrWrite, "write", "", "", nil), job.StageWrite},
		{errors.New("plain"), job.StageWrite},
	}
	for _, tc := range cases {
		if got := services.FailureStage(tc.err, job.StageWrite); got != tc.want {
			t.Fatalf("FailureStage(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestConfigurationClassification(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "", "validate roots", "output inside input", nil)
	if !services.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.IsConfiguration(errors.New("job-scoped")) {
		t.Fatal("plain errors must not be configuration-fatal")
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithJobPath(ctx, "loops/a.wav")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("run id round trip failed: %q %v", id, ok)
	}
	if rel, ok := services.JobPathFromContext(ctx); !ok || rel != "loops/a.wav" {
		t.Fatalf("job path round trip failed: %q %v", rel, ok)
	}
	if _, ok := services.RunIDFromContext(context.Background()); ok {
		t.Fatal("empty context must not yield a run id")
	}
}
