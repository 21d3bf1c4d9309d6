// Package forecast holds the heuristic estimators: a blended 30-day price
// projection and damped quarter-over-quarter growth extrapolation for EPS
// and revenue. Estimators never return errors; insufficient or unusable
// input yields ok == false and the caller moves on.
package forecast

import (
	"math"

	"github.com/ternarybob/equitydb/internal/models"
)

// MinPricePoints is the shortest close series the price estimator accepts
const MinPricePoints = 20

// Blend weights and trend damping of the three price models
const (
	ewmaWeight  = 0.4
	trendWeight = 0.3
	meanWeight  = 0.3

	ewmaDamping  = 0.3
	trendDamping = 0.2
	meanDamping  = 0.1

	maxConfidence = 0.95
)

// PriceEstimate is the output of the price model
type PriceEstimate struct {
	TargetPrice     float64
	CurrentPrice    float64
	PriceChangePct  float64
	ConfidenceScore float64
	Recommendation  models.Recommendation
	Volatility      float64
	TrendStrength   float64
	SMA20           float64
	SMA50           float64
	EWMA            float64
}

// EstimatePrice projects a 30-day target from a chronological close series
func EstimatePrice(closes []float64) (*PriceEstimate, bool) {
	return EstimatePriceAt(closes, len(closes))
}

// EstimatePriceAt runs the estimator over the first cutoff closes only, as
// if the later bars had not happened yet. A cutoff beyond the series is
// clamped to its length.
func EstimatePriceAt(closes []float64, cutoff int) (*PriceEstimate, bool) {
	if cutoff > len(closes) {
		cutoff = len(closes)
	}
	if cutoff < MinPricePoints {
		return nil, false
	}
	prices := closes[:cutoff]
	n := len(prices)

	current := prices[n-1]
	base := prices[n-MinPricePoints]
	if current <= 0 || base <= 0 {
		return nil, false
	}

	ewma := ewmaLast(prices, ewmaSpan)
	recentTrend := (current - base) / base * 100

	sma20 := sma(prices, 20)
	sma50 := sma20
	if n >= 50 {
		sma50 = sma(prices, 50)
	}

	volatility := annualisedVolatility(prices)
	trendStrength := recentTrend / 100

	ewmaForecast := ewma * (1 + trendStrength*ewmaDamping)
	trendForecast := current * (1 + trendStrength*trendDamping)
	meanForecast := (sma20 + sma50) / 2 * (1 + trendStrength*meanDamping)

	target := ewmaForecast*ewmaWeight + trendForecast*trendWeight + meanForecast*meanWeight

	momentum := math.Abs(recentTrend) / 100
	volatilityFactor := 1 / (1 + volatility)
	confidence := math.Min(maxConfidence, 0.5+momentum*0.3+volatilityFactor*0.2)

	changePct := (target - current) / current * 100

	if !finite(target, confidence, changePct, volatility, sma20, sma50, ewma) {
		return nil, false
	}

	return &PriceEstimate{
		TargetPrice:     target,
		CurrentPrice:    current,
		PriceChangePct:  changePct,
		ConfidenceScore: confidence,
		Recommendation:  Recommend(changePct),
		Volatility:      volatility,
		TrendStrength:   trendStrength,
		SMA20:           sma20,
		SMA50:           sma50,
		EWMA:            ewma,
	}, true
}

// Recommend maps a projected percentage change to a recommendation.
// Thresholds are strict: exactly 15 is a Buy and exactly -7 is a Hold.
func Recommend(changePct float64) models.Recommendation {
	switch {
	case changePct > 15:
		return models.RecommendationStrongBuy
	case changePct > 7:
		return models.RecommendationBuy
	case changePct < -15:
		return models.RecommendationStrongSell
	case changePct < -7:
		return models.RecommendationSell
	default:
		return models.RecommendationHold
	}
}
