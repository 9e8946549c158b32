package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/talent-ranker/internal/config"
	"alfredoptarigan/talent-ranker/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	org     string
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "talentctl",
	Short: "Operate the talent ranker data stores",
	Long:  "talentctl loads job definitions, ingests job rubric text into the vector\nstore and prints candidate comparisons, using the same configuration as the API.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.org, "org", "", "Organization id (required)")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")
	_ = rootCmd.MarkPersistentFlagRequired("org")

	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(rubricCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.Version = version
}

// setup loads configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, _ := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.New(cfg.Log.JSON, rootFlags.verbose || cfg.Log.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
