package stretch_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseluismolina/BPMaster/internal/services"
	"github.com/joseluismolina/BPMaster/internal/services/stretch"
	"github.com/joseluismolina/BPMaster/internal/testsupport"
)

func TestStretchInvokesEngineWithRatio(t *testing.T) {
	base := t.TempDir()
	argsFile := filepath.Join(base, "args.txt")
	testsupport.StubBinaries(t, base, map[string]string{
		"rubberband": `echo "$@" > ` + argsFile + "\ncp \"$4\" \"$5\"",
	})

	input := filepath.Join(base, "in.wav")
	output := filepath.Join(base, "out.wav")
	testsupport.WriteFile(t, input, 128)

	cli := stretch.NewCLI()
	if err := cli.Stretch(context.Background(), input, output, 1.09375); err != nil {
		t.Fatalf("Stretch failed: %v", err)
	}

	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output file written: %v", err)
	}
	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	line := string(recorded)
	for _, fragment := range []string{"--tempo 1.09375", "--quiet", input, output} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in engine args %q", fragment, line)
		}
	}
}

func TestStretchClassifiesEngineFailure(t *testing.T) {
	base := t.TempDir()
	testsupport.StubBinaries(t, base, map[string]string{
		"rubberband": "echo 'failed to open input' >&2\nexit 1",
	})
	cli := stretch.NewCLI()
	err := cli.Stretch(context.Background(), filepath.Join(base, "in.wav"), filepath.Join(base, "out.wav"), 1.2)
	if !errors.Is(err, services.ErrStretch) {
		t.Fatalf("expected stretch classification, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to open input") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
}

func TestStretchRejectsMalformedRatio(t *testing.T) {
	cli := stretch.NewCLI(stretch.WithBinary("rubberband-should-never-run"))
	for _, ratio := range []float64{0, -1.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := cli.Stretch(context.Background(), "in.wav", "out.wav", ratio)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("ratio %v: expected validation error, got %v", ratio, err)
		}
	}
}

func TestStretchMissingBinary(t *testing.T) {
	cli := stretch.NewCLI(stretch.WithBinary("definitely-not-installed-stretcher"))
	err := cli.Stretch(context.Background(), "in.wav", "out.wav", 1.1)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool classification, got %v", err)
	}
}

func TestValidateRatio(t *testing.T) {
	if err := stretch.ValidateRatio(1.09375); err != nil {
		t.Fatalf("expected valid ratio, got %v", err)
	}
	if err := stretch.ValidateRatio(math.NaN()); err == nil {
		t.Fatal("expected error for NaN ratio")
	}
}
