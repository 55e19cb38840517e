package detect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os/exec"
	"strings"

	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/services"
)

var commandContext = exec.CommandContext

// Client defines BPM detection behaviour.
type Client interface {
	Detect(ctx context.Context, path string) (job.Estimate, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps a command-line BPM detector. The binary is invoked as
//
//	<binary> analyze --input <path> --json
//
// and must print a single JSON object {"bpm": <float>, "confidence": <float>}
// on stdout. Exit code 2 signals an unreadable or corrupt input file; any
// other non-zero exit signals that the engine could not converge.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "bpm-detect"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

const decodeFailureExitCode = 2

const maxOutputLine = 4 * 1024 * 1024

// Detect runs the detector once against path. A single pass per file; the
// engine is treated as an oracle and never retried.
func (c *CLI) Detect(ctx context.Context, path string) (job.Estimate, error) {
	if strings.TrimSpace(path) == "" {
		return job.Estimate{}, services.Wrap(services.ErrValidation, "detect", "", "input path required", nil)
	}

	args := []string{"analyze", "--input", path, "--json"}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return job.Estimate{}, services.Wrap(services.ErrTimeout, "detect", "run engine", "", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if exitErr.ExitCode() == decodeFailureExitCode {
				return job.Estimate{}, services.Wrap(services.ErrDecode, "detect", "decode input", detail, err)
			}
			return job.Estimate{}, services.Wrap(services.ErrDetection, "detect", "run engine", detail, err)
		}
		return job.Estimate{}, services.Wrap(services.ErrExternalTool, "detect", "start engine", "", err)
	}

	estimate, err := parseEstimate(stdout.Bytes())
	if err != nil {
		return job.Estimate{}, err
	}
	return estimate, nil
}

func parseEstimate(output []byte) (job.Estimate, error) {
	// The engine may print banner lines before the result; the estimate is
	// the last JSON object on stdout.
	var payload struct {
		BPM        float64 `json:"bpm"`
		Confidence float64 `json:"confidence"`
	}
	found := false
	scanner := bufio.NewScanner(bytes.NewReader(output))
	// Engines are known to dump very long banner lines; the default 64 KB
	// token limit would abort the scan before the estimate is reached.
	scanner.Buffer(make([]byte, 0, 64*1024), maxOutputLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		if err := json.Unmarshal(line, &payload); err == nil {
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return job.Estimate{}, services.Wrap(services.ErrExternalTool, "detect", "parse output", "", err)
	}
	if !found {
		return job.Estimate{}, services.Wrap(services.ErrDetection, "detect", "parse output", "engine produced no estimate", nil)
	}
	if payload.BPM <= 0 || math.IsNaN(payload.BPM) || math.IsInf(payload.BPM, 0) {
		return job.Estimate{}, services.Wrap(services.ErrDetection, "detect", "validate estimate", "engine did not converge", nil)
	}
	return job.Estimate{BPM: payload.BPM, Confidence: payload.Confidence}, nil
}

var _ Client = (*CLI)(nil)
