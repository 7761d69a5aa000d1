package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/rocketserializer/internal/batch"
	"github.com/papapumpkin/rocketserializer/internal/config"
	"github.com/papapumpkin/rocketserializer/internal/ui"
)

var errNoInput = errors.New("no .ork file given, use --filepath or pass it as an argument")

var ork2jsonCmd = &cobra.Command{
	Use:   "ork2json [file.ork]",
	Short: "Convert an .ork file into a RocketPy parameters file",
	Long: "Extracts the rocket described in an OpenRocket .ork file and writes parameters.json " +
		"(or parameters.yaml), drag_curve.csv and thrust_source.csv into the output folder. " +
		"The output folder defaults to the folder of the .ork file.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvertCommand(cmd, args, false)
	},
}

var ork2notebookCmd = &cobra.Command{
	Use:   "ork2notebook [file.ork]",
	Short: "Convert an .ork file and render a RocketPy simulation notebook",
	Long: "Runs ork2json and then renders simulation.ipynb next to the parameters file. " +
		"The notebook rebuilds the rocket in RocketPy, flies it, and compares the result " +
		"with the simulation stored in the .ork file.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvertCommand(cmd, args, true)
	},
}

func init() {
	for _, c := range []*cobra.Command{ork2jsonCmd, ork2notebookCmd} {
		c.Flags().String("filepath", "", "path to the .ork file")
		c.Flags().String("output", "", "output folder (default: folder of the .ork file)")
		rootCmd.AddCommand(c)
	}
}

func runConvertCommand(cmd *cobra.Command, args []string, withNotebook bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	job, err := jobFromFlags(cmd, args, cfg)
	if err != nil {
		return err
	}
	job.Notebook = withNotebook

	ctx := cmd.Context()
	rec := openRecorder(ctx, cfg, logger)
	defer rec.Close()
	return runConversion(ctx, job, cfg, rec, ui.New())
}

// jobFromFlags builds a single job from --filepath/--output or the
// positional argument.
func jobFromFlags(cmd *cobra.Command, args []string, cfg config.Config) (batch.Job, error) {
	input, _ := cmd.Flags().GetString("filepath")
	if input == "" && len(args) > 0 {
		input = args[0]
	}
	if input == "" {
		return batch.Job{}, errNoInput
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = defaultOutputDir(cfg, input)
	}
	return batch.Job{Input: input, OutputDir: output, Format: cfg.Format}, nil
}
