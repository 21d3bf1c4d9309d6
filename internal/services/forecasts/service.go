// Package forecasts runs the heuristic estimators over stored data and
// writes the resulting forecast rows.
package forecasts

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/forecast"
	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// Defaults written when no price projection is available
const (
	defaultRecommendation = models.RecommendationHold
	defaultConfidence     = 0.5
)

// Estimate is the merged output of the price, EPS and revenue models.
// Any part may be nil when its inputs were insufficient.
type Estimate struct {
	CompanyID int64
	Price     *forecast.PriceEstimate
	EPS       *forecast.EPSEstimate
	Revenue   *forecast.RevenueEstimate
}

// Service generates and stores forecasts
type Service struct {
	prices     interfaces.PriceStorage
	statements interfaces.StatementStorage
	forecasts  interfaces.ForecastStorage
	validator  *validation.Validator
	logger     arbor.ILogger
	now        func() time.Time
}

// NewService creates a forecast service over the storage manager
func NewService(storage interfaces.StorageManager, validator *validation.Validator, logger arbor.ILogger) *Service {
	return &Service{
		prices:     storage.PriceStorage(),
		statements: storage.StatementStorage(),
		forecasts:  storage.ForecastStorage(),
		validator:  validator,
		logger:     logger,
		now:        time.Now,
	}
}

// growth loads the recent EPS and revenue history and extrapolates both
func (s *Service) growth(ctx context.Context, companyID int64) (*forecast.EPSEstimate, *forecast.RevenueEstimate) {
	var epsEst *forecast.EPSEstimate
	var revEst *forecast.RevenueEstimate

	if eps, err := s.statements.GetEPSHistory(ctx, companyID, forecast.HistoryQuarters); err != nil {
		s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("Failed to load EPS history")
	} else if est, ok := forecast.EstimateEPS(eps); ok {
		epsEst = est
	}

	if revenue, err := s.statements.GetRevenueHistory(ctx, companyID, forecast.HistoryQuarters); err != nil {
		s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("Failed to load revenue history")
	} else if est, ok := forecast.EstimateRevenue(revenue); ok {
		revEst = est
	}

	return epsEst, revEst
}

func closesOf(bars []models.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// EstimateAt runs the price model over the first cutoff closes and merges
// the growth estimates of the company. A nil Price means the series was too
// short or produced a non-finite value.
func (s *Service) EstimateAt(ctx context.Context, companyID int64, closes []float64, cutoff int) *Estimate {
	est := &Estimate{CompanyID: companyID}
	if price, ok := forecast.EstimatePriceAt(closes, cutoff); ok {
		est.Price = price
	}
	est.EPS, est.Revenue = s.growth(ctx, companyID)
	return est
}

// Persist writes one forecast row for est. A zero forecastDate means today.
func (s *Service) Persist(ctx context.Context, est *Estimate, forecastDate time.Time) (*models.Forecast, error) {
	if forecastDate.IsZero() {
		forecastDate = s.now()
	}
	forecastDate = time.Date(forecastDate.Year(), forecastDate.Month(), forecastDate.Day(), 0, 0, 0, 0, time.UTC)

	f := &models.Forecast{
		CompanyID:       est.CompanyID,
		ForecastDate:    forecastDate,
		TargetDate:      forecastDate.Add(models.ForecastHorizon),
		Recommendation:  defaultRecommendation,
		ConfidenceScore: defaultConfidence,
		ModelVersion:    models.ModelVersion,
	}
	if est.Price != nil {
		f.TargetPrice = models.Float(est.Price.TargetPrice)
		f.Recommendation = est.Price.Recommendation
		f.ConfidenceScore = est.Price.ConfidenceScore
	}
	if est.EPS != nil {
		f.EPSForecast = models.Float(est.EPS.ForecastedEPS)
	}
	if est.Revenue != nil {
		f.RevenueForecast = models.Float(est.Revenue.ForecastedAnnualRevenue)
	}

	if err := s.forecasts.InsertForecast(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to insert forecast: %w", err)
	}
	return f, nil
}

// CreateForecast validates and stores a forecast supplied by a caller
func (s *Service) CreateForecast(ctx context.Context, f *models.Forecast) error {
	if f.ModelVersion == "" {
		f.ModelVersion = models.ModelVersion
	}
	if err := s.validator.Forecast(f); err != nil {
		return err
	}
	if err := s.forecasts.InsertForecast(ctx, f); err != nil {
		return fmt.Errorf("failed to insert forecast: %w", err)
	}
	return nil
}

// GenerateCurrent forecasts from the full stored price history. It returns
// nil without writing when the history is too short for the price model.
func (s *Service) GenerateCurrent(ctx context.Context, companyID int64) (*models.Forecast, error) {
	bars, err := s.prices.GetPriceHistory(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}

	closes := closesOf(bars)
	est := s.EstimateAt(ctx, companyID, closes, len(closes))
	if est.Price == nil {
		s.logger.Warn().
			Int64("company_id", companyID).
			Int("bars", len(bars)).
			Msg("Insufficient price history for forecast")
		return nil, nil
	}

	f, err := s.Persist(ctx, est, time.Time{})
	if err != nil {
		return nil, err
	}

	logEvent := s.logger.Info().
		Int64("company_id", companyID).
		Str("recommendation", string(f.Recommendation)).
		Float64("target_price", est.Price.TargetPrice).
		Float64("confidence", est.Price.ConfidenceScore)
	if est.EPS != nil {
		logEvent = logEvent.Float64("eps_forecast", est.EPS.ForecastedEPS)
	}
	if est.Revenue != nil {
		logEvent = logEvent.Float64("revenue_forecast", est.Revenue.ForecastedAnnualRevenue)
	}
	logEvent.Msg("Forecast generated")

	return f, nil
}

// GeneratePeriodic walks the stored history in PeriodicStep increments and
// writes one backdated forecast per checkpoint. It returns how many were written.
func (s *Service) GeneratePeriodic(ctx context.Context, companyID int64) (int, error) {
	bars, err := s.prices.GetPriceHistory(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to load price history: %w", err)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = b.TradeDate
	}
	closes := closesOf(bars)

	// growth inputs do not depend on the checkpoint
	epsEst, revEst := s.growth(ctx, companyID)

	written, failed := 0, 0
	for _, cp := range forecast.PeriodicCheckpoints(dates, forecast.PeriodicStep) {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		price, ok := forecast.EstimatePriceAt(closes, cp.Cutoff)
		if !ok {
			continue
		}
		est := &Estimate{CompanyID: companyID, Price: price, EPS: epsEst, Revenue: revEst}
		if _, err := s.Persist(ctx, est, cp.ForecastDate); err != nil {
			s.logger.Warn().
				Err(err).
				Int64("company_id", companyID).
				Str("forecast_date", cp.ForecastDate.Format("2006-01-02")).
				Msg("Failed to store periodic forecast")
			failed++
			continue
		}
		written++
	}

	s.logger.Info().
		Int64("company_id", companyID).
		Int("forecasts", written).
		Int("failed", failed).
		Msg("Periodic forecasts generated")
	return written, nil
}
