package prices

import (
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
	"github.com/ternarybob/equitydb/internal/validation"
)

func setup(t *testing.T) (*Service, int64) {
	t.Helper()
	logger := arbor.NewLogger()
	m, err := sqldb.NewManager(logger, &common.SQLConfig{
		Driver:        sqldb.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "prices.db"),
		CacheSizeMB:   4,
		BusyTimeoutMS: 5000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	ctx := context.Background()
	sectorID, err := m.CompanyStorage().GetOrCreateSector(ctx, "Energy")
	require.NoError(t, err)
	id, err := m.CompanyStorage().UpsertCompany(ctx, &models.Company{Ticker: "XOM", Name: "Exxon Mobil", SectorID: sectorID})
	require.NoError(t, err)

	return NewService(m, validation.New(), logger), id
}

func TestAddPrice_StoresValidBar(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()

	bar := &models.PriceBar{
		CompanyID: id,
		TradeDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Open:      models.Float(110),
		High:      models.Float(112),
		Low:       models.Float(109),
		Close:     111,
		Volume:    1000,
	}
	require.NoError(t, svc.AddPrice(ctx, bar))

	history, err := svc.History(ctx, "xom")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 111.0, history[0].Close)
	assert.Equal(t, 111.0, *history[0].AdjustedClose)
}

func TestAddPrice_RejectsInvalidBars(t *testing.T) {
	svc, id := setup(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		bar  models.PriceBar
	}{
		{"high below low", models.PriceBar{CompanyID: id, TradeDate: date, Open: models.Float(10), High: models.Float(8), Low: models.Float(5), Close: 9}},
		{"non-positive close", models.PriceBar{CompanyID: id, TradeDate: date, Close: 0}},
		{"negative volume", models.PriceBar{CompanyID: id, TradeDate: date, Close: 10, Volume: -1}},
		{"no company", models.PriceBar{TradeDate: date, Close: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := tt.bar
			err := svc.AddPrice(ctx, &bar)
			require.Error(t, err)
			assert.True(t, validation.IsValidation(err))
		})
	}

	history, err := svc.History(ctx, "XOM")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAddPrice_UnknownCompany(t *testing.T) {
	svc, _ := setup(t)

	err := svc.AddPrice(context.Background(), &models.PriceBar{
		CompanyID: 999,
		TradeDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Close:     10,
	})
	assert.ErrorIs(t, err, validation.ErrNotFound)
}
