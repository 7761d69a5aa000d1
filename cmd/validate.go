package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/ork"
	"github.com/papapumpkin/rocketserializer/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.ork>...",
	Short: "Check that .ork files can be converted",
	Long: "Checks that each file exists, is UTF-8, carries a recorded simulation, " +
		"and labels its simulation columns in English. Nothing is written.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printer := ui.New()
		failed := 0
		for _, path := range args {
			err := validateFile(path)
			if err != nil {
				failed++
				logger.Warn("file cannot be converted", zap.String("input", path), zap.Error(err))
			}
			printer.Valid(path, err)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) cannot be converted", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateFile(path string) error {
	doc, err := ork.Open(path)
	if err != nil {
		return err
	}
	defer doc.Close()
	return doc.Validate()
}
