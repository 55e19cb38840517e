package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseluismolina/BPMaster/internal/logging"
)

func TestNewWritesConsoleLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "bpmaster.log")

	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	scoped := logging.NewComponentLogger(logger, "runner")
	scoped.Info("job finished", logging.String(logging.FieldFile, "loops/a.wav"), logging.Float64("bpm", 128.5))
	scoped.Debug("suppressed at info level")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "INFO runner: job finished") {
		t.Fatalf("expected component-scoped line, got %q", content)
	}
	if !strings.Contains(content, "file=loops/a.wav") || !strings.Contains(content, "bpm=128.5") {
		t.Fatalf("expected attributes in line, got %q", content)
	}
	if strings.Contains(content, "suppressed") {
		t.Fatalf("debug line should be filtered at info level: %q", content)
	}
}

func TestNewJSONFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "bpmaster.log")

	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hello")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	for _, key := range []string{`"ts"`, `"level":"info"`, `"msg":"hello"`} {
		if !strings.Contains(content, key) {
			t.Fatalf("expected %s in json output, got %q", key, content)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
