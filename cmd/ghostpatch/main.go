package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ghostpatch/internal/config"
	"ghostpatch/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Loaded at startup
	cfg    config.Config
	logger *zap.Logger
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "ghostpatch",
	Short: "ghostpatch - haunted-codebase repair simulator",
	Long: `ghostpatch drives anomaly-encounter sessions: your repair intent is
classified, risk-scored and turned into a proposed change, then the
consequences of evaluating that change play out against the run's
stability and insight gauges.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
			cfg.Logging.Development = true
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ghostpatch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ghostpatch 0.3.0")
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ghostpatch.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
