package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
)

// ForecastStorage implements interfaces.ForecastStorage. Forecast rows are
// append-only.
type ForecastStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewForecastStorage creates a new ForecastStorage instance
func NewForecastStorage(db *DB, logger arbor.ILogger) interfaces.ForecastStorage {
	return &ForecastStorage{db: db, logger: logger}
}

type forecastRow struct {
	ID              int64          `db:"forecast_id"`
	CompanyID       int64          `db:"company_id"`
	ForecastDate    string         `db:"forecast_date"`
	TargetDate      string         `db:"target_date"`
	TargetPrice     *float64       `db:"target_price"`
	EPSForecast     *float64       `db:"eps_forecast"`
	RevenueForecast *float64       `db:"revenue_forecast"`
	Recommendation  string         `db:"recommendation"`
	ConfidenceScore float64        `db:"confidence_score"`
	ModelVersion    string         `db:"model_version"`
	Ticker          sql.NullString `db:"ticker_symbol"`
	SectorName      sql.NullString `db:"sector_name"`
}

func (r *forecastRow) toModel() *models.Forecast {
	return &models.Forecast{
		ID:              r.ID,
		CompanyID:       r.CompanyID,
		ForecastDate:    parseDate(r.ForecastDate),
		TargetDate:      parseDate(r.TargetDate),
		TargetPrice:     r.TargetPrice,
		EPSForecast:     r.EPSForecast,
		RevenueForecast: r.RevenueForecast,
		Recommendation:  models.Recommendation(r.Recommendation),
		ConfidenceScore: r.ConfidenceScore,
		ModelVersion:    r.ModelVersion,
		Ticker:          r.Ticker.String,
		SectorName:      r.SectorName.String,
	}
}

const forecastColumns = `f.forecast_id, f.company_id, f.forecast_date, f.target_date,
	f.target_price, f.eps_forecast, f.revenue_forecast, f.recommendation,
	f.confidence_score, f.model_version`

// InsertForecast always writes a new row and sets forecast.ID
func (s *ForecastStorage) InsertForecast(ctx context.Context, forecast *models.Forecast) error {
	query := s.db.DB().Rebind(`
		INSERT INTO forecasts (
			company_id, forecast_date, target_date, target_price, eps_forecast,
			revenue_forecast, recommendation, confidence_score, model_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING forecast_id`)

	confidence := rounded(&forecast.ConfidenceScore, 4)

	var id int64
	err := s.db.DB().QueryRowxContext(ctx, query,
		forecast.CompanyID, dateValue(forecast.ForecastDate), dateValue(forecast.TargetDate),
		rounded(forecast.TargetPrice, 2), rounded(forecast.EPSForecast, 4),
		rounded(forecast.RevenueForecast, 2), string(forecast.Recommendation),
		confidence, forecast.ModelVersion, timestampValue(time.Now()),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert forecast: %w", err)
	}

	forecast.ID = id
	return nil
}

// GetForecastsByCompanyAndDate returns every row written for the company on forecastDate
func (s *ForecastStorage) GetForecastsByCompanyAndDate(ctx context.Context, companyID int64, forecastDate time.Time) ([]*models.Forecast, error) {
	query := s.db.DB().Rebind(`
		SELECT ` + forecastColumns + `, c.ticker_symbol, s.sector_name
		FROM forecasts f
		JOIN companies c ON c.company_id = f.company_id
		LEFT JOIN sectors s ON s.sector_id = c.sector_id
		WHERE f.company_id = ? AND f.forecast_date = ?
		ORDER BY f.forecast_id`)

	return s.selectForecasts(ctx, query, companyID, dateValue(forecastDate))
}

// GetLatestForecasts returns the newest forecast of every company, ordered by ticker
func (s *ForecastStorage) GetLatestForecasts(ctx context.Context) ([]*models.Forecast, error) {
	query := `
		SELECT ` + forecastColumns + `, c.ticker_symbol, s.sector_name
		FROM forecasts f
		JOIN companies c ON c.company_id = f.company_id
		LEFT JOIN sectors s ON s.sector_id = c.sector_id
		WHERE f.forecast_id = (
			SELECT f2.forecast_id FROM forecasts f2
			WHERE f2.company_id = f.company_id
			ORDER BY f2.forecast_date DESC, f2.forecast_id DESC
			LIMIT 1
		)
		ORDER BY c.ticker_symbol`

	return s.selectForecasts(ctx, query)
}

func (s *ForecastStorage) selectForecasts(ctx context.Context, query string, args ...interface{}) ([]*models.Forecast, error) {
	var rows []forecastRow
	if err := s.db.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select forecasts: %w", err)
	}

	forecasts := make([]*models.Forecast, 0, len(rows))
	for i := range rows {
		forecasts = append(forecasts, rows[i].toModel())
	}
	return forecasts, nil
}

// GetRecommendationDistribution aggregates all stored forecasts by recommendation
func (s *ForecastStorage) GetRecommendationDistribution(ctx context.Context) ([]models.RecommendationStat, error) {
	query := `
		SELECT recommendation,
			COUNT(*) AS count,
			AVG(confidence_score) AS avg_confidence,
			AVG(target_price) AS avg_target_price
		FROM forecasts
		GROUP BY recommendation
		ORDER BY count DESC, recommendation`

	var stats []models.RecommendationStat
	if err := s.db.DB().SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get recommendation distribution: %w", err)
	}
	return stats, nil
}

func (s *ForecastStorage) CountForecasts(ctx context.Context, companyID int64) (int, error) {
	var n int
	query := s.db.DB().Rebind(`SELECT COUNT(*) FROM forecasts WHERE company_id = ?`)
	if err := s.db.DB().GetContext(ctx, &n, query, companyID); err != nil {
		return 0, fmt.Errorf("failed to count forecasts: %w", err)
	}
	return n, nil
}
