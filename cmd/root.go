package cmd

import (
	"fmt"
	"os"

	"github.com/mediajenny/the-oracle/src/config"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/spf13/cobra"
)

// envFile is an optional .env path loaded before the environment.
var envFile string

// logLevel overrides LOG_LEVEL when set.
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "The Oracle - line item performance reconciliation",
	Long: `The Oracle reconciles advertiser transaction exports with the NXN line item
delivery lookup and reports revenue, spend and ROAS per line item.

Example Usage:
  oracle serve --port 8080
  oracle migrate up
  oracle report --transactions tx.csv --lookup nxn.xlsx --format xlsx --out report.xlsx`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "config-env", "", "Path to a .env file (default ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn or error")
}

// loadConfig reads configuration and initialises the global logger.
func loadConfig() *config.AppConfig {
	var cfg *config.AppConfig
	if envFile != "" {
		cfg = config.LoadConfig(envFile)
	} else {
		cfg = config.LoadConfig()
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.InitLogger(cfg.LogLevel)
	return cfg
}
