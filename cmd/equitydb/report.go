package main

import (
	"os"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest forecasts and the recommendation distribution",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(false)
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := application.ReportService.Build(cmd.Context())
		if err != nil {
			return err
		}
		return report.Render(os.Stdout)
	},
}
