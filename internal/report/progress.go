package report

import (
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/logging"
)

// Progress tracks per-file completion during a run. On a terminal it draws a
// progress bar; otherwise it logs one line per finished file. JobFinished is
// called from the runner's aggregator goroutine only.
type Progress struct {
	bar    *progressbar.ProgressBar
	logger *slog.Logger
}

// NewProgress builds a tracker for total files writing to out.
func NewProgress(out io.Writer, total int, logger *slog.Logger) *Progress {
	p := &Progress{logger: logging.NewComponentLogger(logger, "progress")}
	if total > 0 && isTerminal(out) {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("processing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}
	return p
}

// JobFinished implements the runner observer.
func (p *Progress) JobFinished(j *job.Job) {
	if p.bar != nil {
		_ = p.bar.Add(1)
		return
	}
	p.logger.Info("file finished",
		logging.String(logging.FieldFile, j.Source.RelPath),
		logging.String("state", string(j.State)),
	)
}

// Finish clears the bar once the run completes.
func (p *Progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
