package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/equitydb/internal/models"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func bar(open, high, low, close float64) *models.PriceBar {
	return &models.PriceBar{
		CompanyID: 1,
		TradeDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Open:      models.Float(open),
		High:      models.Float(high),
		Low:       models.Float(low),
		Close:     close,
		Volume:    1000,
	}
}

func requireValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	return ve
}

func TestPriceBar_Valid(t *testing.T) {
	v := newTestValidator()
	assert.NoError(t, v.PriceBar(bar(10, 12, 9, 11)))
	assert.NoError(t, v.PriceBar(bar(10, 10, 10, 10)))
}

func TestPriceBar_HighBelowOpenRejected(t *testing.T) {
	v := newTestValidator()

	ve := requireValidationError(t, v.PriceBar(bar(10, 8, 5, 9)))
	assert.Equal(t, "high_price", ve.Field)
	assert.Equal(t, "high price must be >= open price", ve.Message)
}

func TestPriceBar_OHLCRules(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		bar     *models.PriceBar
		message string
	}{
		{"high below low", bar(6, 5, 7, 6), "high price must be >= low price"},
		{"high below close", bar(9, 10, 8, 11), "high price must be >= close price"},
		{"low above open", bar(9, 12, 10, 11), "low price must be <= open price"},
		{"low above close", bar(11, 12, 10, 9), "low price must be <= close price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := requireValidationError(t, v.PriceBar(tt.bar))
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}

func TestPriceBar_PartialOHLC(t *testing.T) {
	v := newTestValidator()
	b := &models.PriceBar{
		CompanyID: 1,
		TradeDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Close:     100,
	}
	assert.NoError(t, v.PriceBar(b))

	b.High = models.Float(99)
	ve := requireValidationError(t, v.PriceBar(b))
	assert.Equal(t, "high price must be >= close price", ve.Message)
}

func TestPriceBar_Ranges(t *testing.T) {
	v := newTestValidator()

	b := bar(10, 12, 9, 11)
	b.Close = 0
	b.Low = nil
	b.Open = nil
	ve := requireValidationError(t, v.PriceBar(b))
	assert.Equal(t, "close_price", ve.Field)

	b = bar(10, 12, 9, 11)
	b.Volume = -1
	ve = requireValidationError(t, v.PriceBar(b))
	assert.Equal(t, "volume", ve.Field)

	b = bar(10, 12, 9, 11)
	b.Volume = 1_000_000_000_001
	ve = requireValidationError(t, v.PriceBar(b))
	assert.Equal(t, "volume", ve.Field)

	b = bar(10, 2_000_000, 9, 11)
	ve = requireValidationError(t, v.PriceBar(b))
	assert.Equal(t, "high_price", ve.Field)
}

func TestPriceBar_FutureDateRejected(t *testing.T) {
	v := newTestValidator()

	b := bar(10, 12, 9, 11)
	b.TradeDate = fixedNow.AddDate(0, 0, 1)
	ve := requireValidationError(t, v.PriceBar(b))
	assert.Equal(t, "trade_date", ve.Field)

	// later the same day is still today
	b.TradeDate = fixedNow.Add(6 * time.Hour)
	assert.NoError(t, v.PriceBar(b))
}

func validForecast() *models.Forecast {
	forecastDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &models.Forecast{
		CompanyID:       7,
		ForecastDate:    forecastDate,
		TargetDate:      forecastDate.Add(models.ForecastHorizon),
		TargetPrice:     models.Float(150),
		EPSForecast:     models.Float(6.5),
		RevenueForecast: models.Float(4e11),
		Recommendation:  models.RecommendationBuy,
		ConfidenceScore: 0.72,
		ModelVersion:    models.ModelVersion,
	}
}

func TestForecast_Valid(t *testing.T) {
	v := newTestValidator()
	assert.NoError(t, v.Forecast(validForecast()))

	f := validForecast()
	f.TargetPrice = nil
	f.EPSForecast = nil
	f.RevenueForecast = nil
	assert.NoError(t, v.Forecast(f))
}

func TestForecast_Rules(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		mutate func(f *models.Forecast)
		field  string
	}{
		{"target before forecast", func(f *models.Forecast) { f.TargetDate = f.ForecastDate.AddDate(0, 0, -1) }, "target_date"},
		{"target equals forecast", func(f *models.Forecast) { f.TargetDate = f.ForecastDate }, "target_date"},
		{"forecast in future", func(f *models.Forecast) {
			f.ForecastDate = fixedNow.AddDate(0, 0, 2)
			f.TargetDate = f.ForecastDate.AddDate(0, 0, 30)
		}, "forecast_date"},
		{"horizon too long", func(f *models.Forecast) { f.TargetDate = f.ForecastDate.AddDate(0, 0, 1826) }, "target_date"},
		{"confidence above one", func(f *models.Forecast) { f.ConfidenceScore = 1.01 }, "confidence_score"},
		{"negative confidence", func(f *models.Forecast) { f.ConfidenceScore = -0.1 }, "confidence_score"},
		{"zero target price", func(f *models.Forecast) { f.TargetPrice = models.Float(0) }, "target_price"},
		{"target price too high", func(f *models.Forecast) { f.TargetPrice = models.Float(1_000_001) }, "target_price"},
		{"negative revenue", func(f *models.Forecast) { f.RevenueForecast = models.Float(-1) }, "revenue_forecast"},
		{"eps out of range", func(f *models.Forecast) { f.EPSForecast = models.Float(-1000.5) }, "eps_forecast"},
		{"unknown recommendation", func(f *models.Forecast) { f.Recommendation = "Accumulate" }, "recommendation"},
		{"missing company", func(f *models.Forecast) { f.CompanyID = 0 }, "company_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForecast()
			tt.mutate(f)
			ve := requireValidationError(t, v.Forecast(f))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestForecast_HorizonBoundary(t *testing.T) {
	v := newTestValidator()
	f := validForecast()
	f.ForecastDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	f.TargetDate = f.ForecastDate.AddDate(0, 0, MaxForecastHorizonDays)
	assert.NoError(t, v.Forecast(f))
}

func TestTicker(t *testing.T) {
	v := newTestValidator()

	assert.NoError(t, v.Ticker("AAPL"))
	assert.NoError(t, v.Ticker(" brk1 "))
	assert.NoError(t, v.Ticker("ABCDEFGHIJ"))

	for _, bad := range []string{"", "   ", "BRK.B", "ABCDEFGHIJK", "TSLA$"} {
		assert.Error(t, v.Ticker(bad), bad)
	}
}

func TestCompany_NormalisesTicker(t *testing.T) {
	v := newTestValidator()

	c := &models.Company{Ticker: " msft", Name: "Microsoft Corporation"}
	require.NoError(t, v.Company(c))
	assert.Equal(t, "MSFT", c.Ticker)

	c = &models.Company{Ticker: "MSFT", Name: "M"}
	ve := requireValidationError(t, v.Company(c))
	assert.Equal(t, "company_name", ve.Field)
}

func TestMetrics_RatioRanges(t *testing.T) {
	v := newTestValidator()

	assert.NoError(t, v.Metrics(&models.ValuationMetrics{PERatio: models.Float(-100), PBRatio: models.Float(1000)}))
	assert.NoError(t, v.Metrics(&models.ValuationMetrics{}))

	ve := requireValidationError(t, v.Metrics(&models.ValuationMetrics{PERatio: models.Float(10001)}))
	assert.Equal(t, "PERatio", ve.Field)

	ve = requireValidationError(t, v.Metrics(&models.ValuationMetrics{PBRatio: models.Float(-0.5)}))
	assert.Equal(t, "PBRatio", ve.Field)
}

func TestStatementHeader_FiscalPeriod(t *testing.T) {
	v := newTestValidator()

	h := &models.StatementHeader{CompanyID: 1, FiscalYear: 2025, FiscalQuarter: "Q2", Type: models.StatementIncome}
	assert.NoError(t, v.StatementHeader(h))

	h.FiscalQuarter = "FY"
	assert.NoError(t, v.StatementHeader(h))

	h.FiscalQuarter = "Q5"
	requireValidationError(t, v.StatementHeader(h))

	h.FiscalQuarter = "Q1"
	h.FiscalYear = 2027
	requireValidationError(t, v.StatementHeader(h))
}

func TestNotFound(t *testing.T) {
	err := NotFound("company", "ZZZZ")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "ZZZZ")
	assert.False(t, IsValidation(err))
}
