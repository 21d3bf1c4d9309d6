package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/storage/sqldb"
)

func setup(t *testing.T) (*Service, *sqldb.Manager, string) {
	t.Helper()
	logger := arbor.NewLogger()
	m, err := sqldb.NewManager(logger, &common.SQLConfig{
		Driver:        sqldb.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "export.db"),
		CacheSizeMB:   4,
		BusyTimeoutMS: 5000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	dir := filepath.Join(t.TempDir(), "export")
	return NewService(m, dir, logger), m, dir
}

func seed(t *testing.T, m *sqldb.Manager, ticker string, n int) {
	t.Helper()
	ctx := context.Background()
	sectorID, err := m.CompanyStorage().GetOrCreateSector(ctx, "Healthcare")
	require.NoError(t, err)
	id, err := m.CompanyStorage().UpsertCompany(ctx, &models.Company{Ticker: ticker, Name: ticker + " Corp", SectorID: sectorID})
	require.NoError(t, err)

	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{
			CompanyID: id,
			TradeDate: start.AddDate(0, 0, i),
			Close:     150 + float64(i),
			Volume:    int64(1000 * (i + 1)),
		}
	}
	if n > 0 {
		bars[0].Open = models.Float(149.5)
		_, err = m.PriceStorage().UpsertPrices(ctx, bars)
		require.NoError(t, err)
	}
}

func readBars(t *testing.T, path string) []BarRecord {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(BarRecord), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	rows := make([]BarRecord, pr.GetNumRows())
	require.NoError(t, pr.Read(&rows))
	return rows
}

func TestExport_WritesOneFilePerCompany(t *testing.T) {
	svc, m, dir := setup(t)
	seed(t, m, "JNJ", 3)
	seed(t, m, "PFE", 0)

	results, err := svc.Export(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "JNJ", results[0].Ticker)
	assert.Equal(t, filepath.Join(dir, "JNJ.parquet"), results[0].Path)
	assert.Equal(t, 3, results[0].Rows)

	rows := readBars(t, results[0].Path)
	require.Len(t, rows, 3)
	assert.Equal(t, "JNJ", rows[0].Ticker)
	assert.Equal(t, "2025-02-03", rows[0].Date)
	assert.Equal(t, 150.0, rows[0].Close)
	require.NotNil(t, rows[0].Open)
	assert.Equal(t, 149.5, *rows[0].Open)
	assert.Nil(t, rows[1].Open)
	assert.Equal(t, int64(3000), rows[2].Volume)

	assert.NoFileExists(t, filepath.Join(dir, "PFE.parquet"))
}

func TestExport_SelectedTickers(t *testing.T) {
	svc, m, dir := setup(t)
	seed(t, m, "JNJ", 2)
	seed(t, m, "MRK", 2)

	results, err := svc.Export(context.Background(), []string{"mrk", "NOPE"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "MRK", results[0].Ticker)
	assert.NoFileExists(t, filepath.Join(dir, "JNJ.parquet"))
	assert.NoFileExists(t, filepath.Join(dir, "MRK.parquet.tmp"))
}
