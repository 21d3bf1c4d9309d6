package forecast

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/equitydb/internal/models"
)

func flat(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func TestEstimatePrice_TooShort(t *testing.T) {
	for n := 0; n < MinPricePoints; n++ {
		_, ok := EstimatePrice(flat(n, 50))
		assert.False(t, ok, "series of length %d", n)
	}

	_, ok := EstimatePrice(flat(MinPricePoints, 50))
	assert.True(t, ok)
}

func TestEstimatePrice_FlatSeries(t *testing.T) {
	est, ok := EstimatePrice(flat(30, 100))
	require.True(t, ok)

	assert.Equal(t, 0.0, est.TrendStrength)
	assert.Equal(t, 0.0, est.Volatility)
	assert.InDelta(t, 100.0, est.TargetPrice, 1e-9)
	assert.InDelta(t, 100.0, est.EWMA, 1e-9)
	assert.InDelta(t, 0.0, est.PriceChangePct, 1e-9)
	assert.InDelta(t, 0.7, est.ConfidenceScore, 1e-12)
	assert.Equal(t, models.RecommendationHold, est.Recommendation)
	// fewer than 50 points: sma_50 falls back to sma_20
	assert.Equal(t, est.SMA20, est.SMA50)
}

func TestEstimatePrice_BlendedTarget(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	est, ok := EstimatePrice(closes)
	require.True(t, ok)

	current := 159.0
	recentTrend := (159.0 - 140.0) / 140.0 * 100
	ts := recentTrend / 100
	sma20 := avg(closes[40:])
	sma50 := avg(closes[10:])
	ewma := ewmaLast(closes, 20)

	want := 0.4*ewma*(1+ts*0.3) + 0.3*current*(1+ts*0.2) + 0.3*(sma20+sma50)/2*(1+ts*0.1)

	assert.InDelta(t, want, est.TargetPrice, 1e-9)
	assert.InDelta(t, ts, est.TrendStrength, 1e-12)
	assert.Equal(t, current, est.CurrentPrice)
	assert.InDelta(t, 149.5, est.SMA20, 1e-9)
	assert.InDelta(t, 134.5, est.SMA50, 1e-9)
	assert.InDelta(t, (want-current)/current*100, est.PriceChangePct, 1e-9)
}

func TestEstimatePriceAt_Cutoff(t *testing.T) {
	closes := append(flat(30, 100), 500, 600, 700)

	_, ok := EstimatePriceAt(closes, 19)
	assert.False(t, ok)

	est, ok := EstimatePriceAt(closes, 30)
	require.True(t, ok)
	assert.Equal(t, 100.0, est.CurrentPrice)
	assert.InDelta(t, 100.0, est.TargetPrice, 1e-9)

	full, ok := EstimatePriceAt(closes, 1000)
	require.True(t, ok)
	assert.Equal(t, 700.0, full.CurrentPrice)
}

func TestEstimatePrice_ConfidenceBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := MinPricePoints + rng.Intn(200)
		closes := make([]float64, n)
		price := 10 + rng.Float64()*500
		for i := range closes {
			price *= 1 + (rng.Float64()-0.5)*0.2
			closes[i] = price
		}

		est, ok := EstimatePrice(closes)
		require.True(t, ok)
		assert.GreaterOrEqual(t, est.ConfidenceScore, 0.5)
		assert.LessOrEqual(t, est.ConfidenceScore, 0.95)
		assert.False(t, math.IsNaN(est.TargetPrice))
	}
}

func TestEstimatePrice_ConfidenceClamped(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = math.Pow(1.1, float64(i))
	}

	est, ok := EstimatePrice(closes)
	require.True(t, ok)
	assert.Equal(t, 0.95, est.ConfidenceScore)
	assert.Equal(t, models.RecommendationStrongBuy, est.Recommendation)
}

func TestEstimatePrice_NonPositivePrice(t *testing.T) {
	closes := flat(25, 100)
	closes[24] = 0

	_, ok := EstimatePrice(closes)
	assert.False(t, ok)
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		pct  float64
		want models.Recommendation
	}{
		{16.0, models.RecommendationStrongBuy},
		{15.0, models.RecommendationBuy},
		{7.01, models.RecommendationBuy},
		{7.0, models.RecommendationHold},
		{0, models.RecommendationHold},
		{-7.0, models.RecommendationHold},
		{-7.01, models.RecommendationSell},
		{-15.0, models.RecommendationSell},
		{-15.01, models.RecommendationStrongSell},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Recommend(tt.pct), "pct %v", tt.pct)
	}
}

func TestEWMALast(t *testing.T) {
	assert.InDelta(t, 5.0/3.0, ewmaLast([]float64{1, 2}, 3), 1e-12)
	assert.InDelta(t, 2.0, ewmaLast([]float64{1, 2}, 1), 1e-12)
	assert.Equal(t, 0.0, ewmaLast(nil, 20))
}

func TestAnnualisedVolatility(t *testing.T) {
	vol := annualisedVolatility([]float64{100, 110, 99})
	assert.InDelta(t, math.Sqrt(0.02)*math.Sqrt(252), vol, 1e-9)
	assert.Equal(t, 0.0, annualisedVolatility([]float64{100}))
}
