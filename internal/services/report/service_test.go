package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/storage/sqldb"
)

func TestBuildAndRender(t *testing.T) {
	logger := arbor.NewLogger()
	m, err := sqldb.NewManager(logger, &common.SQLConfig{
		Driver:        sqldb.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "report.db"),
		CacheSizeMB:   4,
		BusyTimeoutMS: 5000,
	})
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	sectorID, err := m.CompanyStorage().GetOrCreateSector(ctx, "Energy")
	require.NoError(t, err)
	id, err := m.CompanyStorage().UpsertCompany(ctx, &models.Company{Ticker: "XOM", Name: "Exxon Mobil", SectorID: sectorID})
	require.NoError(t, err)

	older := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC)
	for _, f := range []*models.Forecast{
		{CompanyID: id, ForecastDate: older, TargetDate: older.AddDate(0, 0, 30), TargetPrice: models.Float(100),
			Recommendation: models.RecommendationHold, ConfidenceScore: 0.6, ModelVersion: models.ModelVersion},
		{CompanyID: id, ForecastDate: newer, TargetDate: newer.AddDate(0, 0, 30), TargetPrice: models.Float(1234.5),
			RevenueForecast: models.Float(3.5e11), Recommendation: models.RecommendationBuy, ConfidenceScore: 0.8,
			ModelVersion: models.ModelVersion},
	} {
		require.NoError(t, m.ForecastStorage().InsertForecast(ctx, f))
	}
	require.NoError(t, m.RunStorage().StartRun(ctx, &models.EtlRun{ID: "run_test", Mode: "full"}))

	rep, err := NewService(m, logger).Build(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Latest, 1)
	assert.Equal(t, models.RecommendationBuy, rep.Latest[0].Recommendation)
	assert.Equal(t, 2, rep.Total())
	require.Len(t, rep.Runs, 1)

	var buf bytes.Buffer
	require.NoError(t, rep.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "XOM")
	assert.Contains(t, out, "Energy")
	assert.Contains(t, out, "2025-05-16")
	assert.Contains(t, out, "$1,234.5")
	assert.Contains(t, out, "$350.00G")
	assert.Contains(t, out, "80%")
	assert.Contains(t, out, "RECOMMENDATIONS (2 forecasts)")
	assert.Contains(t, out, "run_test")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Report{}).Render(&buf))
	assert.Contains(t, buf.String(), "(none)")
	assert.Contains(t, buf.String(), "RECOMMENDATIONS (0 forecasts)")
	assert.NotContains(t, buf.String(), "RECENT RUNS")
}
