package runner

import (
	"context"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseluismolina/BPMaster/internal/errlog"
	"github.com/joseluismolina/BPMaster/internal/fileutil"
	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/ledger"
	"github.com/joseluismolina/BPMaster/internal/logging"
	"github.com/joseluismolina/BPMaster/internal/media"
	"github.com/joseluismolina/BPMaster/internal/organizer"
	"github.com/joseluismolina/BPMaster/internal/services"
	"github.com/joseluismolina/BPMaster/internal/services/detect"
	"github.com/joseluismolina/BPMaster/internal/services/stretch"
)

// Observer receives job outcomes as the aggregator records them. Callbacks
// run on the aggregator goroutine, never concurrently.
type Observer interface {
	JobFinished(j *job.Job)
}

// Options configures one run.
type Options struct {
	Mode         job.Mode
	TargetBPM    float64
	InputRoot    string
	Workers      int
	BPMTolerance float64
	ToolTimeout  time.Duration
}

// Runner orchestrates the per-file pipeline.
type Runner struct {
	opts      Options
	detector  detect.Client
	stretcher stretch.Client
	mapper    *organizer.Mapper
	sink      *errlog.Sink
	store     *ledger.Store
	observer  Observer
	logger    *slog.Logger
}

// New assembles a runner. The mapper is nil in analyze mode; the ledger and
// observer are optional.
func New(opts Options, detector detect.Client, stretcher stretch.Client, mapper *organizer.Mapper, sink *errlog.Sink, store *ledger.Store, observer Observer, logger *slog.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		opts:      opts,
		detector:  detector,
		stretcher: stretcher,
		mapper:    mapper,
		sink:      sink,
		store:     store,
		observer:  observer,
		logger:    logging.NewComponentLogger(logger, "runner"),
	}
}

type result struct {
	index int
	job   *job.Job
}

// Run processes every discovered file and returns the aggregate summary.
// Job-scoped failures never abort the run; only context cancellation does.
func (r *Runner) Run(ctx context.Context, refs []media.AudioFileRef, discoveryFailures []media.DiscoveryFailure) (job.Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	started := time.Now()

	summary := job.Summary{
		RunID:      runID,
		Mode:       r.opts.Mode,
		TargetBPM:  r.opts.TargetBPM,
		InputRoot:  r.opts.InputRoot,
		Discovered: len(refs) + len(discoveryFailures),
	}
	if r.mapper != nil {
		summary.OutputRoot = r.mapper.OutputRoot()
	}

	r.logger.Info("run started",
		logging.String(logging.FieldRunID, runID),
		logging.String("mode", string(r.opts.Mode)),
		logging.Float64("target_bpm", r.opts.TargetBPM),
		logging.Int("files", len(refs)),
		logging.Int("workers", r.opts.Workers),
	)

	if r.store != nil {
		if err := r.store.BeginRun(ctx, runID, r.opts.Mode, r.opts.TargetBPM, r.opts.InputRoot, summary.OutputRoot, started); err != nil {
			r.logger.Warn("ledger unavailable; run history will not be recorded", logging.Error(err))
			r.store = nil
		}
	}

	// Discovery short-circuits: the files behind these records were never
	// readable, so they skip the pipeline entirely.
	for _, failure := range discoveryFailures {
		record := job.NewFailure(failure.RelPath, job.StageDiscovery, failure.Err)
		if r.sink != nil {
			r.sink.Record(record)
		}
		summary.Skipped++
		summary.Lines = append(summary.Lines, job.ResultLine{
			RelPath: failure.RelPath,
			State:   job.StateSkipped,
			Stage:   job.StageDiscovery,
			Message: record.Message,
		})
	}

	lines := make([]job.ResultLine, len(refs))
	workers := r.opts.Workers
	if workers > len(refs) {
		workers = len(refs)
	}

	if workers > 0 {
		work := make(chan result)
		results := make(chan result)

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				for item := range work {
					if ctx.Err() == nil {
						r.process(ctx, item.job)
					}
					results <- item
				}
			}()
		}

		go func() {
			defer close(work)
			for i, ref := range refs {
				j := job.New(ref, r.opts.Mode, r.opts.TargetBPM)
				select {
				case work <- result{index: i, job: j}:
				case <-ctx.Done():
					return
				}
			}
		}()

		go func() {
			wg.Wait()
			close(results)
		}()

		// Aggregation: this goroutine is the only writer of the sink, the
		// ledger, the counters, and the observer.
		for item := range results {
			r.record(ctx, &summary, item.job)
			lines[item.index] = resultLine(item.job)
		}
	}

	for _, line := range lines {
		if line.RelPath != "" {
			summary.Lines = append(summary.Lines, line)
		}
	}
	summary.Elapsed = time.Since(started)

	if r.store != nil {
		if err := r.store.FinishRun(ctx, summary, time.Now()); err != nil {
			r.logger.Warn("failed to finalize run record", logging.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	r.logger.Info("run completed",
		logging.String(logging.FieldRunID, runID),
		logging.Int("succeeded", summary.Succeeded()),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (r *Runner) record(ctx context.Context, summary *job.Summary, j *job.Job) {
	switch {
	case j.State == job.StateFailed:
		summary.Failed++
		if j.Failure != nil && r.sink != nil {
			r.sink.Record(*j.Failure)
		}
	case j.Succeeded():
		if r.opts.Mode == job.ModeAnalyze {
			summary.Analyzed++
		} else {
			summary.Written++
			summary.BytesWritten += j.BytesWritten
		}
	default:
		// A job that finished in a non-terminal state was interrupted by
		// cancellation; account it as skipped so the summary stays complete.
		summary.Skipped++
	}

	if r.store != nil {
		if err := r.store.RecordJob(ctx, summary.RunID, j); err != nil {
			r.logger.Warn("failed to record job outcome",
				logging.String(logging.FieldFile, j.Source.RelPath),
				logging.Error(err),
			)
		}
	}
	if r.observer != nil {
		r.observer.JobFinished(j)
	}
}

func (r *Runner) process(ctx context.Context, j *job.Job) {
	ctx = services.WithJobPath(ctx, j.Source.RelPath)
	started := time.Now()
	defer func() {
		j.Elapsed = time.Since(started)
	}()

	estimate, err := r.detect(ctx, j.Source.Path)
	if err != nil {
		j.SetFailed(job.NewFailure(j.Source.RelPath, services.FailureStage(err, job.StageDetection), err))
		r.logJobFailure(j)
		return
	}
	j.Estimate = &estimate
	if err := j.Advance(job.StateDetected); err != nil {
		j.SetFailed(job.NewFailure(j.Source.RelPath, job.StageDetection, err))
		return
	}
	r.logger.Debug("bpm detected",
		logging.String(logging.FieldFile, j.Source.RelPath),
		logging.Float64("bpm", estimate.BPM),
		logging.Float64("confidence", estimate.Confidence),
	)

	if j.Mode == job.ModeAnalyze {
		return
	}

	ratio := j.TargetBPM / estimate.BPM
	j.Ratio = ratio
	if err := stretch.ValidateRatio(ratio); err != nil {
		j.SetFailed(job.NewFailure(j.Source.RelPath, job.StageStretch, err))
		r.logJobFailure(j)
		return
	}

	dest, err := r.mapper.Ensure(j.Source)
	if err != nil {
		j.SetFailed(job.NewFailure(j.Source.RelPath, job.StageWrite, err))
		r.logJobFailure(j)
		return
	}
	j.OutputPath = dest

	if math.Abs(ratio-1) <= r.opts.BPMTolerance {
		// Already at target tempo: a verified copy preserves the audio
		// bytes exactly instead of round-tripping through the engine.
		written, err := fileutil.CopyFileVerified(j.Source.Path, dest)
		if err != nil {
			j.SetFailed(job.NewFailure(j.Source.RelPath, job.StageWrite, err))
			r.logJobFailure(j)
			return
		}
		j.BytesWritten = written
		_ = j.Advance(job.StateWritten)
		return
	}

	if err := r.stretch(ctx, j.Source.Path, dest, ratio); err != nil {
		j.SetFailed(job.NewFailure(j.Source.RelPath, services.FailureStage(err, job.StageStretch), err))
		r.logJobFailure(j)
		return
	}
	if err := j.Advance(job.StateStretched); err != nil {
		j.SetFailed(job.NewFailure(j.Source.RelPath, job.StageStretch, err))
		return
	}

	info, err := os.Stat(dest)
	if err != nil {
		j.SetFailed(job.NewFailure(j.Source.RelPath, job.StageWrite, err))
		r.logJobFailure(j)
		return
	}
	j.BytesWritten = info.Size()
	_ = j.Advance(job.StateWritten)
}

func (r *Runner) detect(ctx context.Context, path string) (job.Estimate, error) {
	ctx, cancel := r.toolContext(ctx)
	defer cancel()
	return r.detector.Detect(ctx, path)
}

func (r *Runner) stretch(ctx context.Context, input, output string, ratio float64) error {
	ctx, cancel := r.toolContext(ctx)
	defer cancel()
	return r.stretcher.Stretch(ctx, input, output, ratio)
}

func (r *Runner) toolContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.ToolTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.ToolTimeout)
}

func (r *Runner) logJobFailure(j *job.Job) {
	if j.Failure == nil {
		return
	}
	r.logger.Debug("job failed",
		logging.String(logging.FieldFile, j.Source.RelPath),
		logging.String(logging.FieldStage, string(j.Failure.Stage)),
		logging.String("message", j.Failure.Message),
	)
}

func resultLine(j *job.Job) job.ResultLine {
	line := job.ResultLine{
		RelPath: j.Source.RelPath,
		State:   j.State,
		Ratio:   j.Ratio,
	}
	if j.Estimate != nil {
		line.BPM = j.Estimate.BPM
		line.Confidence = j.Estimate.Confidence
	}
	if j.Failure != nil {
		line.Stage = j.Failure.Stage
		line.Message = j.Failure.Message
	}
	return line
}
