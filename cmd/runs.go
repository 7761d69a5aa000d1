package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/rocketserializer/internal/config"
	"github.com/papapumpkin/rocketserializer/internal/ledger"
	"github.com/papapumpkin/rocketserializer/internal/ui"
)

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recent conversions recorded in the run ledger",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := ledger.Open(ctx, cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	printer := ui.NewWriter(cmd.OutOrStdout())
	if len(args) == 1 {
		run, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		printer.Runs([]ledger.Run{run})
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printer.Runs(runs)
	return nil
}
