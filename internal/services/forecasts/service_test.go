package forecasts

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/forecast"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/storage/sqldb"
	"github.com/ternarybob/equitydb/internal/validation"
)

var today = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	manager   *sqldb.Manager
	companyID int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := arbor.NewLogger()
	m, err := sqldb.NewManager(logger, &common.SQLConfig{
		Driver:        sqldb.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "forecasts.db"),
		CacheSizeMB:   4,
		BusyTimeoutMS: 5000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	ctx := context.Background()
	sectorID, err := m.CompanyStorage().GetOrCreateSector(ctx, "Technology")
	require.NoError(t, err)
	id, err := m.CompanyStorage().UpsertCompany(ctx, &models.Company{Ticker: "AAPL", Name: "Apple Inc.", SectorID: sectorID})
	require.NoError(t, err)

	svc := NewService(m, validation.New(validation.WithClock(func() time.Time { return today })), logger)
	svc.now = func() time.Time { return today }
	return &fixture{svc: svc, manager: m, companyID: id}
}

func (f *fixture) seedPrices(t *testing.T, closes []float64) {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			CompanyID:     f.companyID,
			TradeDate:     start.AddDate(0, 0, i),
			Close:         c,
			AdjustedClose: models.Float(c),
			Volume:        1000,
		}
	}
	n, err := f.manager.PriceStorage().UpsertPrices(context.Background(), bars)
	require.NoError(t, err)
	require.Equal(t, len(bars), n)
}

func (f *fixture) seedIncome(t *testing.T, eps, revenue []float64) {
	t.Helper()
	ctx := context.Background()
	store := f.manager.StatementStorage()
	for i := range eps {
		quarter := fmt.Sprintf("Q%d", i+1)
		id, err := store.UpsertStatementHeader(ctx, &models.StatementHeader{
			CompanyID:     f.companyID,
			FiscalYear:    2024,
			FiscalQuarter: quarter,
			FilingDate:    time.Date(2024, time.Month(3*(i+1)), 28, 0, 0, 0, 0, time.UTC),
			Type:          models.StatementIncome,
		})
		require.NoError(t, err)
		require.NoError(t, store.UpsertIncomeStatement(ctx, &models.IncomeStatement{
			StatementID: id,
			EPSDiluted:  models.Float(eps[i]),
			Revenue:     models.Float(revenue[i]),
		}))
	}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestGenerateCurrent_InsufficientHistory(t *testing.T) {
	f := setup(t)
	f.seedPrices(t, constant(forecast.MinPricePoints-1, 50))

	got, err := f.svc.GenerateCurrent(context.Background(), f.companyID)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := f.manager.ForecastStorage().CountForecasts(context.Background(), f.companyID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerateCurrent_MergesGrowthEstimates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedPrices(t, constant(30, 100))
	f.seedIncome(t, []float64{1.00, 1.10, 1.21}, []float64{100, 110, 121})

	created, err := f.svc.GenerateCurrent(ctx, f.companyID)
	require.NoError(t, err)
	require.NotNil(t, created)

	rows, err := f.manager.ForecastStorage().GetForecastsByCompanyAndDate(ctx, f.companyID, today)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, models.RecommendationHold, row.Recommendation)
	assert.InDelta(t, 0.7, row.ConfidenceScore, 1e-9)
	require.NotNil(t, row.TargetPrice)
	assert.Equal(t, 100.0, *row.TargetPrice)
	require.NotNil(t, row.EPSForecast)
	assert.Equal(t, 1.5488, *row.EPSForecast)
	require.NotNil(t, row.RevenueForecast)
	assert.InDelta(t, 629.2, *row.RevenueForecast, 1e-6)
	assert.Equal(t, models.ModelVersion, row.ModelVersion)
	assert.True(t, row.TargetDate.Equal(today.AddDate(0, 0, 30)))
}

func TestPersist_DefaultsWithoutPriceEstimate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Persist(ctx, &Estimate{CompanyID: f.companyID}, time.Time{})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	rows, err := f.manager.ForecastStorage().GetForecastsByCompanyAndDate(ctx, f.companyID, today)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.RecommendationHold, rows[0].Recommendation)
	assert.Equal(t, 0.5, rows[0].ConfidenceScore)
	assert.Nil(t, rows[0].TargetPrice)
	assert.Nil(t, rows[0].EPSForecast)
	assert.Nil(t, rows[0].RevenueForecast)
}

func TestPersist_AppendsRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Persist(ctx, &Estimate{CompanyID: f.companyID}, today)
		require.NoError(t, err)
	}

	n, err := f.manager.ForecastStorage().CountForecasts(ctx, f.companyID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGeneratePeriodic_OneRowPerCheckpoint(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	f.seedPrices(t, closes)

	bars, err := f.manager.PriceStorage().GetPriceHistory(ctx, f.companyID)
	require.NoError(t, err)
	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = b.TradeDate
	}
	checkpoints := forecast.PeriodicCheckpoints(dates, forecast.PeriodicStep)
	require.NotEmpty(t, checkpoints)

	written, err := f.svc.GeneratePeriodic(ctx, f.companyID)
	require.NoError(t, err)
	assert.Equal(t, len(checkpoints), written)

	n, err := f.manager.ForecastStorage().CountForecasts(ctx, f.companyID)
	require.NoError(t, err)
	assert.Equal(t, written, n)

	first := checkpoints[0]
	rows, err := f.manager.ForecastStorage().GetForecastsByCompanyAndDate(ctx, f.companyID, first.ForecastDate)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].TargetDate.Equal(first.TargetDate))
}

func TestCreateForecast_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	valid := &models.Forecast{
		CompanyID:       f.companyID,
		ForecastDate:    today,
		TargetDate:      today.AddDate(0, 0, 30),
		TargetPrice:     models.Float(251.457),
		Recommendation:  models.RecommendationBuy,
		ConfidenceScore: 0.73,
	}
	require.NoError(t, f.svc.CreateForecast(ctx, valid))
	assert.Equal(t, models.ModelVersion, valid.ModelVersion)

	tests := []struct {
		name   string
		mutate func(*models.Forecast)
	}{
		{"target before forecast", func(fc *models.Forecast) { fc.TargetDate = fc.ForecastDate.AddDate(0, 0, -1) }},
		{"forecast in future", func(fc *models.Forecast) {
			fc.ForecastDate = today.AddDate(0, 0, 2)
			fc.TargetDate = fc.ForecastDate.AddDate(0, 0, 30)
		}},
		{"confidence above one", func(fc *models.Forecast) { fc.ConfidenceScore = 1.2 }},
		{"unknown recommendation", func(fc *models.Forecast) { fc.Recommendation = "Accumulate" }},
		{"eps out of range", func(fc *models.Forecast) { fc.EPSForecast = models.Float(-1500) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := *valid
			fc.ID = 0
			tt.mutate(&fc)
			err := f.svc.CreateForecast(ctx, &fc)
			require.Error(t, err)
			assert.True(t, validation.IsValidation(err))
		})
	}

	n, err := f.manager.ForecastStorage().CountForecasts(ctx, f.companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
