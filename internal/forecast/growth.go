package forecast

import "math"

// HistoryQuarters is how many recent quarters feed the growth models
const HistoryQuarters = 4

// minGrowthPairs is the fewest consecutive quarter pairs a growth rate is averaged over
const minGrowthPairs = 2

const (
	epsDamping     = 0.7
	revenueDamping = 0.75

	quartersAhead = 4
)

// EPSEstimate is a one-year EPS projection
type EPSEstimate struct {
	CurrentEPS         float64
	ForecastedEPS      float64
	GrowthRate         float64 // average quarterly growth, percent
	DampenedGrowthRate float64 // damped growth over four quarters, percent
}

// RevenueEstimate is a one-year revenue projection from the latest quarter
type RevenueEstimate struct {
	LastQuarterRevenue      float64
	AnnualizedRevenue       float64
	ForecastedAnnualRevenue float64
	GrowthRate              float64
	DampenedGrowthRate      float64
}

// EstimateEPS extrapolates diluted EPS one year ahead. history is
// most-recent-first as read from storage; nil entries are dropped.
func EstimateEPS(history []*float64) (*EPSEstimate, bool) {
	values := chronological(history)
	if len(values) < 2 {
		return nil, false
	}

	growth, ok := averageGrowth(values, func(prev float64) bool { return prev != 0 })
	if !ok {
		return nil, false
	}

	current := values[len(values)-1]
	dampened := growth * epsDamping
	next := current * (1 + dampened*quartersAhead)
	if !finite(next) {
		return nil, false
	}

	return &EPSEstimate{
		CurrentEPS:         current,
		ForecastedEPS:      next,
		GrowthRate:         growth * 100,
		DampenedGrowthRate: dampened * quartersAhead * 100,
	}, true
}

// EstimateRevenue annualises the latest quarter and extrapolates it one
// year ahead. Only pairs whose earlier quarter is positive count.
func EstimateRevenue(history []*float64) (*RevenueEstimate, bool) {
	values := chronological(history)
	if len(values) < 2 {
		return nil, false
	}

	growth, ok := averageGrowth(values, func(prev float64) bool { return prev > 0 })
	if !ok {
		return nil, false
	}

	last := values[len(values)-1]
	dampened := growth * revenueDamping
	annualized := last * quartersAhead
	next := annualized * (1 + dampened*quartersAhead)
	if !finite(next) {
		return nil, false
	}

	return &RevenueEstimate{
		LastQuarterRevenue:      last,
		AnnualizedRevenue:       annualized,
		ForecastedAnnualRevenue: next,
		GrowthRate:              growth * 100,
		DampenedGrowthRate:      dampened * quartersAhead * 100,
	}, true
}

// chronological drops absent values from the first HistoryQuarters entries
// of a newest-first history and returns them oldest first
func chronological(history []*float64) []float64 {
	if len(history) > HistoryQuarters {
		history = history[:HistoryQuarters]
	}
	values := make([]float64, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		v := history[i]
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		values = append(values, *v)
	}
	return values
}

// averageGrowth averages (v[i]-v[i-1])/|v[i-1]| over the pairs whose
// earlier value passes usable
func averageGrowth(values []float64, usable func(prev float64) bool) (float64, bool) {
	rates := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if !usable(prev) {
			continue
		}
		rates = append(rates, (values[i]-prev)/math.Abs(prev))
	}
	if len(rates) < minGrowthPairs {
		return 0, false
	}
	return avg(rates), true
}
