package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/rocketserializer/internal/batch"
	"github.com/papapumpkin/rocketserializer/internal/config"
	"github.com/papapumpkin/rocketserializer/internal/ui"
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.toml>",
	Short: "Convert every .ork file listed in a TOML manifest",
	Long: `Converts the rockets listed in a TOML manifest, several at a time.

  [defaults]
  output_root = "out"      # optional, one subfolder per rocket
  format = "json"
  notebook = false

  [[rocket]]
  path = "rockets/*.ork"   # a file or a glob
  output = "out/fleet"     # optional

A failing rocket is reported and never stops the others.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("jobs", 0, "conversions run in parallel (default: batch.jobs)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("jobs"); v > 0 {
		cfg.Batch.Jobs = v
	}

	m, err := batch.Load(args[0])
	if err != nil {
		return err
	}
	jobs, err := m.Jobs()
	if err != nil {
		return err
	}

	printer := ui.New()
	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	rec := openRecorder(ctx, cfg, logger)
	defer rec.Close()

	runner := &batch.Runner{
		Jobs:   cfg.Batch.Jobs,
		Logger: logger,
		Convert: func(ctx context.Context, job batch.Job) error {
			started := time.Now()
			if job.Format == "" {
				job.Format = cfg.Format
			}
			_, err := convertJob(job, cfg, logger)
			rec.record(ctx, job, job.Format, started, err)
			return err
		},
	}
	outcomes := runner.Run(ctx, jobs)
	printer.BatchSummary(outcomes)

	if failed := batch.Failed(outcomes); len(failed) > 0 {
		return fmt.Errorf("%d of %d conversions failed", len(failed), len(outcomes))
	}
	return nil
}
