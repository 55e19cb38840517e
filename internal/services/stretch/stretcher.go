package stretch

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/joseluismolina/BPMaster/internal/services"
)

var commandContext = exec.CommandContext

// Client defines time-stretch behaviour. The engine changes duration by the
// given ratio while preserving pitch, and writes the result to outputPath in
// the input's container format.
type Client interface {
	Stretch(ctx context.Context, inputPath, outputPath string, ratio float64) error
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

// CLI wraps the rubberband command-line stretcher, invoked as
//
//	<binary> --tempo <ratio> --quiet <input> <output>
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "rubberband"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Stretch runs the engine once. Malformed ratios are rejected before the
// engine is invoked, never clamped.
func (c *CLI) Stretch(ctx context.Context, inputPath, outputPath string, ratio float64) error {
	if strings.TrimSpace(inputPath) == "" {
		return services.Wrap(services.ErrValidation, "stretch", "", "input path required", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrValidation, "stretch", "", "output path required", nil)
	}
	if err := ValidateRatio(ratio); err != nil {
		return err
	}

	args := []string{"--tempo", strconv.FormatFloat(ratio, 'f', -1, 64), "--quiet", inputPath, outputPath}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "stretch", "run engine", "", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return services.Wrap(services.ErrStretch, "stretch", "run engine", strings.TrimSpace(stderr.String()), err)
		}
		return services.Wrap(services.ErrExternalTool, "stretch", "start engine", "", err)
	}
	return nil
}

// ValidateRatio rejects zero, negative, and non-finite stretch ratios.
func ValidateRatio(ratio float64) error {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return services.Wrap(services.ErrValidation, "stretch", "validate ratio",
			"stretch ratio must be a finite positive number, got "+strconv.FormatFloat(ratio, 'g', -1, 64), nil)
	}
	return nil
}

var _ Client = (*CLI)(nil)
