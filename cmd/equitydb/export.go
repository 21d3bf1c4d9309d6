package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [tickers...]",
	Short: "Export stored price bars to parquet",
	Long:  `Writes one parquet file of daily bars per company into the configured export directory.`,
	RunE:  runExport,
}

var exportDir string

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (overrides config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportDir != "" {
		config.Export.Dir = exportDir
	}

	application, err := openApp(false)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := application.ExportService.Export(ctx, args)
	for _, r := range results {
		fmt.Printf("%-8s %6d rows  %s\n", r.Ticker, r.Rows, r.Path)
	}
	return err
}
