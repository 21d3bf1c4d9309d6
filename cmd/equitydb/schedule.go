package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/services/pipeline"
)

const etlJobName = "etl"

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the ETL on the configured cron schedule",
	Long:  `Keeps running and starts an ETL run each time the [schedule] cron expression fires. Stop with Ctrl+C.`,
	RunE:  runSchedule,
}

var (
	scheduleCron string
	scheduleNow  bool
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "Cron expression (overrides config)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Run once immediately before waiting for the schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if scheduleCron != "" {
		config.Schedule.Cron = scheduleCron
	}
	config.Schedule.Enabled = true

	application, err := openApp(true)
	if err != nil {
		return err
	}
	defer application.Close()

	task := func(ctx context.Context) error {
		// re-read so edits to the companies file apply to the next run
		universe, err := common.LoadUniverse(config.Pipeline.CompaniesFile)
		if err != nil {
			return err
		}
		run, err := application.PipelineService.Run(ctx, universe, pipeline.Options{})
		if run != nil {
			printRun(run)
		}
		return err
	}

	scheduler := application.SchedulerService
	if err := scheduler.Register(etlJobName, config.Schedule.Cron, task); err != nil {
		return err
	}

	// Ctrl+C cancels whatever is running, the immediate run included
	ctx, cancel := signalContext()
	defer cancel()
	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info().Msg("Interrupt signal received")
		stopped <- scheduler.Stop()
	}()

	if scheduleNow {
		if err := scheduler.RunNow(etlJobName); err != nil {
			logger.Warn().Err(err).Msg("Immediate run failed")
		}
		if ctx.Err() != nil {
			return <-stopped
		}
	}

	if err := scheduler.Start(); err != nil {
		return err
	}

	fmt.Printf("Next run at %s - Press Ctrl+C to stop\n",
		scheduler.NextRun(etlJobName).Format(time.RFC1123))

	return <-stopped
}
