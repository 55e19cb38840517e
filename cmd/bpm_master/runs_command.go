package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joseluismolina/BPMaster/internal/config"
	"github.com/joseluismolina/BPMaster/internal/ledger"
	"github.com/joseluismolina/BPMaster/internal/report"
)

func newRunsCommand(globals *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs recorded in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(globals.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			store, err := ledger.Open(cfg.Paths.StateDir)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				finished := "-"
				if run.FinishedAt != nil {
					finished = run.FinishedAt.Local().Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []string{
					run.ID,
					string(run.Mode),
					strconv.FormatFloat(run.TargetBPM, 'f', 1, 64),
					strconv.Itoa(run.Discovered),
					strconv.Itoa(run.Succeeded),
					strconv.Itoa(run.Failed),
					strconv.Itoa(run.Skipped),
					humanize.Bytes(uint64(run.BytesWritten)),
					finished,
				})
			}

			fmt.Fprintln(out, report.Table(
				[]string{"RUN", "MODE", "TARGET", "FILES", "OK", "FAILED", "SKIPPED", "WRITTEN", "FINISHED"},
				rows,
				[]report.Alignment{
					report.AlignLeft, report.AlignLeft, report.AlignRight,
					report.AlignRight, report.AlignRight, report.AlignRight,
					report.AlignRight, report.AlignRight, report.AlignLeft,
				},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
