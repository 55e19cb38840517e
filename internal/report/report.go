package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/joseluismolina/BPMaster/internal/job"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

// Emitter writes the human-readable run report.
type Emitter struct {
	out      io.Writer
	colorize bool
}

// NewEmitter builds an emitter for the writer. Color is enabled only when
// the writer is a terminal.
func NewEmitter(out io.Writer) *Emitter {
	return &Emitter{out: out, colorize: isTerminal(out)}
}

// Emit prints the per-file results and the closing summary for one run.
func (e *Emitter) Emit(summary job.Summary) {
	if len(summary.Lines) > 0 {
		e.println(sectionHeader(resultTitle(summary.Mode), e.colorize)...)
		e.println(e.resultTable(summary))
		e.println("")
	}

	e.println(sectionHeader("Summary", e.colorize)...)
	e.println(e.statusLine("Mode", statusInfo, string(summary.Mode)))
	e.println(e.statusLine("Target BPM", statusInfo, formatBPM(summary.TargetBPM)))
	e.println(e.statusLine("Discovered", statusInfo, strconv.Itoa(summary.Discovered)))
	if summary.Mode == job.ModeAnalyze {
		e.println(e.statusLine("Analyzed", okOrWarn(summary.Analyzed > 0), strconv.Itoa(summary.Analyzed)))
	} else {
		written := fmt.Sprintf("%d (%s)", summary.Written, humanize.Bytes(uint64(summary.BytesWritten)))
		e.println(e.statusLine("Written", okOrWarn(summary.Written > 0), written))
	}
	failedKind := statusOK
	if summary.Failed > 0 {
		failedKind = statusError
	}
	e.println(e.statusLine("Failed", failedKind, strconv.Itoa(summary.Failed)))
	if summary.Skipped > 0 {
		e.println(e.statusLine("Skipped", statusWarn, strconv.Itoa(summary.Skipped)))
	}
	e.println(e.statusLine("Elapsed", statusInfo, summary.Elapsed.Round(elapsedPrecision).String()))

	if summary.Failed > 0 {
		e.println("")
		e.println(e.statusLine("Errors", statusError, "details appended to errors.log"))
	}
}

func (e *Emitter) resultTable(summary job.Summary) string {
	if summary.Mode == job.ModeAnalyze {
		rows := make([][]string, 0, len(summary.Lines))
		for _, line := range summary.Lines {
			rows = append(rows, []string{
				line.RelPath,
				formatLineBPM(line),
				formatConfidence(line),
				lineStatus(line),
			})
		}
		return Table(
			[]string{"FILE", "BPM", "CONFIDENCE", "STATUS"},
			rows,
			[]Alignment{AlignLeft, AlignRight, AlignRight, AlignLeft},
		)
	}

	rows := make([][]string, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		rows = append(rows, []string{
			line.RelPath,
			formatLineBPM(line),
			formatRatio(line),
			lineStatus(line),
		})
	}
	return Table(
		[]string{"FILE", "BPM", "RATIO", "STATUS"},
		rows,
		[]Alignment{AlignLeft, AlignRight, AlignRight, AlignLeft},
	)
}

func (e *Emitter) statusLine(label string, kind statusKind, message string) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if e.colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func (e *Emitter) println(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(e.out, line)
	}
}

const elapsedPrecision = 10 * time.Millisecond

func resultTitle(mode job.Mode) string {
	if mode == job.ModeAnalyze {
		return "Analysis"
	}
	return "Results"
}

func lineStatus(line job.ResultLine) string {
	switch line.State {
	case job.StateFailed:
		return fmt.Sprintf("failed (%s): %s", line.Stage, line.Message)
	case job.StateSkipped:
		return fmt.Sprintf("skipped: %s", line.Message)
	default:
		return string(line.State)
	}
}

func formatLineBPM(line job.ResultLine) string {
	if line.BPM <= 0 {
		return "-"
	}
	return formatBPM(line.BPM)
}

func formatBPM(bpm float64) string {
	return strconv.FormatFloat(bpm, 'f', 1, 64)
}

func formatConfidence(line job.ResultLine) string {
	if line.BPM <= 0 {
		return "-"
	}
	return strconv.FormatFloat(line.Confidence, 'f', 2, 64)
}

func formatRatio(line job.ResultLine) string {
	if line.Ratio <= 0 {
		return "-"
	}
	return strconv.FormatFloat(line.Ratio, 'f', 4, 64)
}

func okOrWarn(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusWarn
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func sectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
