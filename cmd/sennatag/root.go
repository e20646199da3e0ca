package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/sennatag/internal/logging"
	"github.com/praetorian-inc/sennatag/pkg/config"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "sennatag",
	Short: "sennatag - drive the SENNA tagger over documents",
	Long: `sennatag runs the SENNA natural language tagger over text documents.
It builds the engine input from sentence and token annotations, spreads large
documents over several engine processes, and maps part-of-speech, chunk,
named entity, semantic role and constituency results back onto the original
text as annotations in a store.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")

	rootCmd.AddCommand(newTagCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *slog.Logger {
	return logging.New(logging.LevelFor(verbose, quiet))
}

// loadConfig reads --config when given and the defaults otherwise.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
