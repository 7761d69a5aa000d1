package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/config"
	"github.com/papapumpkin/rocketserializer/internal/ui"
	"github.com/papapumpkin/rocketserializer/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [file.ork]",
	Short: "Convert an .ork file again every time it is saved",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("filepath", "", "path to the .ork file")
	watchCmd.Flags().String("output", "", "output folder (default: folder of the .ork file)")
	watchCmd.Flags().Bool("notebook", false, "also render simulation.ipynb")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	job, err := jobFromFlags(cmd, args, cfg)
	if err != nil {
		return err
	}
	job.Notebook, _ = cmd.Flags().GetBool("notebook")

	printer := ui.New()
	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	rec := openRecorder(ctx, cfg, logger)
	defer rec.Close()

	w, err := watch.New(job.Input, logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	// Failures are reported and the watch goes on; the next save may fix them.
	_ = runConversion(ctx, job, cfg, rec, printer)
	printer.Watching(job.Input)

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-w.Changes:
			if c.Removed {
				logger.Info("watched file removed", zap.String("path", c.Path))
				continue
			}
			_ = runConversion(ctx, job, cfg, rec, printer)
		}
	}
}
