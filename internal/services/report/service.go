// Package report summarises the stored forecasts: the latest forecast per
// company and the distribution of recommendations.
package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
)

const recentRuns = 5

// Report is a point-in-time summary
type Report struct {
	Latest       []*models.Forecast
	Distribution []models.RecommendationStat
	Runs         []*models.EtlRun
}

// Total returns the number of forecasts counted in the distribution
func (r *Report) Total() int {
	n := 0
	for _, s := range r.Distribution {
		n += s.Count
	}
	return n
}

type Service struct {
	forecasts interfaces.ForecastStorage
	runs      interfaces.RunStorage
	logger    arbor.ILogger
}

func NewService(storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		forecasts: storage.ForecastStorage(),
		runs:      storage.RunStorage(),
		logger:    logger,
	}
}

// Build reads the latest forecasts, the distribution and recent runs
func (s *Service) Build(ctx context.Context) (*Report, error) {
	latest, err := s.forecasts.GetLatestForecasts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest forecasts: %w", err)
	}
	dist, err := s.forecasts.GetRecommendationDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation distribution: %w", err)
	}
	runs, err := s.runs.ListRuns(ctx, recentRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	s.logger.Debug().Int("companies", len(latest)).Int("recommendations", len(dist)).Msg("Report built")
	return &Report{Latest: latest, Distribution: dist, Runs: runs}, nil
}

// Render writes the report as aligned text tables
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "LATEST FORECASTS")
	fmt.Fprintln(tw, "TICKER\tSECTOR\tDATE\tTARGET\tTARGET PRICE\tEPS\tREVENUE\tRECOMMENDATION\tCONFIDENCE")
	for _, f := range r.Latest {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.0f%%\n",
			f.Ticker,
			f.SectorName,
			f.ForecastDate.Format("2006-01-02"),
			f.TargetDate.Format("2006-01-02"),
			money(f.TargetPrice, 2),
			money(f.EPSForecast, 4),
			revenue(f.RevenueForecast),
			f.Recommendation,
			f.ConfidenceScore*100,
		)
	}
	if len(r.Latest) == 0 {
		fmt.Fprintln(tw, "(none)")
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "RECOMMENDATIONS (%d forecasts)\n", r.Total())
	fmt.Fprintln(tw, "RECOMMENDATION\tCOUNT\tAVG CONFIDENCE\tAVG TARGET")
	for _, s := range r.Distribution {
		confidence := "-"
		if s.AvgConfidence != nil {
			confidence = fmt.Sprintf("%.1f%%", *s.AvgConfidence*100)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Recommendation, s.Count, confidence, money(s.AvgTargetPrice, 2))
	}

	if len(r.Runs) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "RECENT RUNS")
		fmt.Fprintln(tw, "RUN\tMODE\tSTARTED\tPROCESSED\tFAILED")
		for _, run := range r.Runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
				run.ID, run.Mode, humanize.Time(run.StartedAt), run.Processed, run.Failed)
		}
	}

	return tw.Flush()
}

func money(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return "$" + humanize.CommafWithDigits(*v, places)
}

func revenue(v *float64) string {
	if v == nil {
		return "-"
	}
	value, prefix := humanize.ComputeSI(*v)
	return fmt.Sprintf("$%.2f%s", value, prefix)
}
