package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/config"
	"github.com/papapumpkin/rocketserializer/internal/logging"
)

var (
	logger     = zap.NewNop()
	logCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "rocketserializer",
	Short: "Convert OpenRocket files into RocketPy simulations",
	Long: "rocketserializer reads an OpenRocket .ork file, extracts the rocket geometry, " +
		"mass properties and recorded flight data, and writes a RocketPy parameters file " +
		"with its drag and thrust curves. It can also render a ready-to-run simulation notebook.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
	PersistentPostRun: func(*cobra.Command, []string) { logCleanup() },
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .rocketserializer.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("format", config.FormatJSON, "parameters file format: json or yaml")
	flags.String("encoding", "utf-8", "encoding of the parameters file")
	flags.String("log-file", "serializer.log", "log file, truncated on every run (empty disables)")
	flags.String("ledger", ".rocketserializer/runs.db", "run ledger database")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("encoding", flags.Lookup("encoding"))
	_ = viper.BindPFlag("log_file", flags.Lookup("log-file"))
	_ = viper.BindPFlag("ledger_path", flags.Lookup("ledger"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".rocketserializer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("ROCKETSERIALIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// setupLogger builds the shared logger once the configuration is known.
func setupLogger(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, cleanup, err := logging.New(logging.Options{File: cfg.LogFile, Verbose: cfg.Verbose})
	if err != nil {
		return err
	}
	logger = log.With(zap.String("command", cmd.Name()))
	logCleanup = cleanup
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("config loaded", zap.String("file", f))
	}
	return nil
}
