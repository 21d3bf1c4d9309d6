package models

import "time"

// Recommendation is the categorical call derived from the projected price change
type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "Strong Buy"
	RecommendationBuy        Recommendation = "Buy"
	RecommendationHold       Recommendation = "Hold"
	RecommendationSell       Recommendation = "Sell"
	RecommendationStrongSell Recommendation = "Strong Sell"
)

// Recommendations lists every valid recommendation, most bullish first
var Recommendations = []Recommendation{
	RecommendationStrongBuy,
	RecommendationBuy,
	RecommendationHold,
	RecommendationSell,
	RecommendationStrongSell,
}

// ModelVersion tags forecasts produced by the heuristic estimator
const ModelVersion = "Mathematical-v1.0"

// ForecastHorizon is the distance between forecast_date and target_date
const ForecastHorizon = 30 * 24 * time.Hour

// Forecast is one persisted forecast row. Rows are never updated; a newer
// forecast_date supersedes older rows for the same company.
type Forecast struct {
	ID              int64          `json:"forecast_id" db:"forecast_id"`
	CompanyID       int64          `json:"company_id" db:"company_id" validate:"required,gt=0"`
	ForecastDate    time.Time      `json:"forecast_date" db:"forecast_date" validate:"required"`
	TargetDate      time.Time      `json:"target_date" db:"target_date" validate:"required"`
	TargetPrice     *float64       `json:"target_price" db:"target_price" validate:"omitempty,gt=0,lte=1000000"`
	EPSForecast     *float64       `json:"eps_forecast" db:"eps_forecast" validate:"omitempty,gte=-1000,lte=1000"`
	RevenueForecast *float64       `json:"revenue_forecast" db:"revenue_forecast" validate:"omitempty,gte=0"`
	Recommendation  Recommendation `json:"recommendation" db:"recommendation" validate:"recommendation"`
	ConfidenceScore float64        `json:"confidence_score" db:"confidence_score" validate:"gte=0,lte=1"`
	ModelVersion    string         `json:"model_version" db:"model_version"`

	// Joined columns, populated by report queries
	Ticker     string `json:"ticker_symbol,omitempty" db:"ticker_symbol"`
	SectorName string `json:"sector_name,omitempty" db:"sector_name"`
}

// RecommendationStat aggregates forecasts sharing a recommendation
type RecommendationStat struct {
	Recommendation Recommendation `db:"recommendation"`
	Count          int            `db:"count"`
	AvgConfidence  *float64       `db:"avg_confidence"`
	AvgTargetPrice *float64       `db:"avg_target_price"`
}
