// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 5:02:41 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/app"
	"github.com/ternarybob/equitydb/internal/common"
)

var (
	// Command-line flags
	configFiles   []string // Multiple --config flags supported
	logLevel      string
	providerName  string
	companiesFile string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "equitydb",
	Short:         "Equity research ETL and forecaster",
	Long:          `Loads company profiles, daily prices and quarterly statements into a relational store, derives valuation metrics and writes heuristic forecasts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadRuntime()
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "Market data provider: eodhd or yahoo (overrides config)")
	rootCmd.PersistentFlags().StringVar(&companiesFile, "companies", "", "Companies YAML file (overrides config)")

	rootCmd.AddCommand(runCmd, forecastCmd, exportCmd, scheduleCmd, reportCmd, versionCmd)
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("Command failed")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadRuntime runs the startup sequence (REQUIRED ORDER):
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Apply CLI overrides (highest priority)
// 3. Initialize logger
// 4. Print banner
func loadRuntime() error {
	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("equitydb.toml"); err == nil {
			configFiles = append(configFiles, "equitydb.toml")
		} else if _, err := os.Stat("deployments/local/equitydb.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/equitydb.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration %v: %w", configFiles, err)
	}

	applyFlagOverrides(config)

	logger = common.InitLogger(config)
	common.InstallCrashHandler(config.Logging.Dir)
	common.PrintBanner()

	logger.Debug().
		Strs("config_files", configFiles).
		Str("provider", config.Provider.Name).
		Str("driver", config.Storage.SQL.Driver).
		Str("field_map", config.Pipeline.FieldMapVersion).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration (sanitized)")
	return nil
}

func applyFlagOverrides(cfg *common.Config) {
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if providerName != "" {
		cfg.Provider.Name = providerName
	}
	if companiesFile != "" {
		cfg.Pipeline.CompaniesFile = companiesFile
	}
}

// openApp builds the application. Commands that call the provider validate
// the full configuration first.
func openApp(withProvider bool) (*app.App, error) {
	if withProvider {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return app.New(config, logger, app.Options{WithProvider: withProvider})
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
