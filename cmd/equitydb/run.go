package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/services/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ETL for the company universe",
	Long:  `Fetches profiles, prices and quarterly statements for every company in the universe, computes valuation metrics and writes forecasts.`,
	RunE:  runETL,
}

var (
	runPeriodic bool
	runTickers  []string
)

func init() {
	runCmd.Flags().BoolVar(&runPeriodic, "periodic", false, "Also write backfilled forecasts at fixed checkpoints")
	runCmd.Flags().StringSliceVar(&runTickers, "ticker", nil, "Restrict the run to these tickers (repeatable or comma-separated)")
}

func runETL(cmd *cobra.Command, args []string) error {
	application, err := openApp(true)
	if err != nil {
		return err
	}
	defer application.Close()

	universe, err := common.LoadUniverse(config.Pipeline.CompaniesFile)
	if err != nil {
		return err
	}
	companies := common.FilterUniverse(universe, runTickers)

	ctx, cancel := signalContext()
	defer cancel()

	run, err := application.PipelineService.Run(ctx, companies, pipeline.Options{Periodic: runPeriodic})
	if run != nil {
		printRun(run)
	}
	return err
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Write forecasts from stored data only",
	Long:  `Generates forecasts for companies already in the database without calling the market data provider.`,
	RunE:  runForecast,
}

var (
	forecastPeriodic bool
	forecastTickers  []string
)

func init() {
	forecastCmd.Flags().BoolVar(&forecastPeriodic, "periodic", false, "Also write backfilled forecasts at fixed checkpoints")
	forecastCmd.Flags().StringSliceVar(&forecastTickers, "ticker", nil, "Restrict to these tickers (default: every stored company)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	application, err := openApp(false)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	run, err := application.PipelineService.RunForecasts(ctx, forecastTickers, pipeline.Options{Periodic: forecastPeriodic})
	if run != nil {
		printRun(run)
	}
	return err
}

func printRun(run *models.EtlRun) {
	elapsed := ""
	if run.FinishedAt != nil {
		elapsed = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
	}
	fmt.Printf("Run %s (%s): %d processed, %d failed in %s\n",
		run.ID, run.Mode, run.Processed, run.Failed, elapsed)
}
