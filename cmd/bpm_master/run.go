package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseluismolina/BPMaster/internal/config"
	"github.com/joseluismolina/BPMaster/internal/errlog"
	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/ledger"
	"github.com/joseluismolina/BPMaster/internal/logging"
	"github.com/joseluismolina/BPMaster/internal/media"
	"github.com/joseluismolina/BPMaster/internal/organizer"
	"github.com/joseluismolina/BPMaster/internal/report"
	"github.com/joseluismolina/BPMaster/internal/runner"
	"github.com/joseluismolina/BPMaster/internal/services/detect"
	"github.com/joseluismolina/BPMaster/internal/services/stretch"
)

type runOptions struct {
	targetBPM   float64
	outputDir   string
	analyzeOnly bool
	workers     int
}

func runBatch(cmd *cobra.Command, inputArg string, globals *globalFlags, opts *runOptions) error {
	if opts.targetBPM <= 0 {
		return fmt.Errorf("--target-bpm must be a positive number, got %v", opts.targetBPM)
	}

	inputRoot, err := config.ExpandPath(inputArg)
	if err != nil {
		return fmt.Errorf("resolve input folder: %w", err)
	}
	info, err := os.Stat(inputRoot)
	if err != nil {
		return fmt.Errorf("input folder %s: %w", inputRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", inputRoot)
	}

	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Processing.Workers = opts.workers
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	outputRoot, err := config.ExpandPath(opts.outputDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	// Root validation applies even in analyze mode; the mapper itself never
	// touches the filesystem until a job is written.
	mapper, err := organizer.New(inputRoot, outputRoot)
	if err != nil {
		return err
	}

	mode := job.ModeModify
	if opts.analyzeOnly {
		mode = job.ModeAnalyze
		mapper = nil
	}

	sink := errlog.Open(cfg.Paths.ErrorLog, logger)
	defer sink.Close()

	store, err := ledger.Open(cfg.Paths.StateDir)
	if err != nil {
		logger.Warn("run ledger unavailable", logging.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	refs, discoveryFailures, err := media.Discover(inputRoot, media.NewExtensionSet(cfg.Processing.Extensions))
	if err != nil {
		return fmt.Errorf("scan input folder: %w", err)
	}

	progress := report.NewProgress(os.Stdout, len(refs), logger)
	r := runner.New(
		runner.Options{
			Mode:         mode,
			TargetBPM:    opts.targetBPM,
			InputRoot:    inputRoot,
			Workers:      cfg.Processing.Workers,
			BPMTolerance: cfg.Processing.BPMTolerance,
			ToolTimeout:  time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
		},
		detect.NewCLI(detect.WithBinary(cfg.Tools.Detector)),
		stretch.NewCLI(stretch.WithBinary(cfg.Tools.Stretcher)),
		mapper,
		sink,
		store,
		progress,
		logger,
	)

	summary, err := r.Run(cmd.Context(), refs, discoveryFailures)
	progress.Finish()
	if err != nil {
		return err
	}

	report.NewEmitter(cmd.OutOrStdout()).Emit(summary)
	if sink.Degraded() && sink.Recorded() > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"warning: could not write %s; %d failure records were only counted\n",
			sink.Path(), sink.Recorded())
	}
	return nil
}

func loadConfig(globals *globalFlags) (*config.Config, error) {
	cfg, _, _, err := config.Load(globals.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globals.logLevel != "" {
		cfg.Logging.Level = globals.logLevel
	}
	if globals.jsonLog {
		cfg.Logging.Format = "json"
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stderr",
			filepath.Join(cfg.Paths.LogDir, "bpm_master.log"),
		},
	})
}
