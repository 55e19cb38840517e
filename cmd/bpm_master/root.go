package main

import (
	"errors"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	logLevel   string
	jsonLog    bool
}

func newRootCommand() *cobra.Command {
	globals := &globalFlags{}
	runFlags := &runOptions{}

	rootCmd := &cobra.Command{
		Use:           "bpm_master <input_folder>",
		Short:         "Batch audio tempo normalizer",
		Long: "bpm_master walks an input folder, detects the tempo of every audio file,\n" +
			"and writes a copy of each file time-stretched to the target BPM into a\n" +
			"mirrored output tree. With --analyze-only it reports tempos without\n" +
			"writing anything.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Missing input folder is a configuration error: show the
				// usage but still exit non-zero.
				_ = cmd.Help()
				return errors.New("input_folder is required")
			}
			return runBatch(cmd, args[0], globals, runFlags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globals.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&globals.jsonLog, "json-log", false, "Emit logs as JSON")

	rootCmd.Flags().Float64Var(&runFlags.targetBPM, "target-bpm", 0, "Tempo every file is normalized to (required)")
	rootCmd.Flags().StringVar(&runFlags.outputDir, "output-dir", "out", "Directory the processed tree is mirrored into")
	rootCmd.Flags().BoolVar(&runFlags.analyzeOnly, "analyze-only", false, "Detect and report tempos without writing files")
	rootCmd.Flags().IntVar(&runFlags.workers, "workers", 0, "Concurrent files processed (overrides configuration)")

	rootCmd.AddCommand(newConfigCommand(globals))
	rootCmd.AddCommand(newRunsCommand(globals))

	return rootCmd
}
