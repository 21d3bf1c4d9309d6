package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/services/market"
	"github.com/ternarybob/equitydb/internal/services/pipeline"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := common.NewDefaultConfig()
	cfg.Provider.Name = "yahoo"
	cfg.Storage.SQL.Path = filepath.Join(dir, "equitydb.db")
	cfg.Storage.Cache.Path = filepath.Join(dir, "cache")
	cfg.Export.Dir = filepath.Join(dir, "export")
	return cfg
}

func TestNew_WithoutProvider(t *testing.T) {
	application, err := New(testConfig(t), arbor.NewLogger(), Options{})
	require.NoError(t, err)
	defer application.Close()

	assert.Nil(t, application.Provider)
	assert.Nil(t, application.Cache)
	require.NotNil(t, application.PipelineService)
	assert.NotNil(t, application.ReportService)

	// forecasting from stored data still works on an empty database
	run, err := application.PipelineService.RunForecasts(context.Background(), nil, pipeline.Options{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ModeForecast, run.Mode)
	assert.Zero(t, run.Processed)

	_, err = application.PipelineService.Run(context.Background(), common.DefaultUniverse(), pipeline.Options{})
	assert.Error(t, err)
}

func TestNew_WithCachedProvider(t *testing.T) {
	application, err := New(testConfig(t), arbor.NewLogger(), Options{WithProvider: true})
	require.NoError(t, err)

	require.NotNil(t, application.Cache)
	_, cached := application.Provider.(*market.CachedProvider)
	assert.True(t, cached)
	assert.Equal(t, "yahoo", application.Provider.Name())

	assert.NoError(t, application.Close())
}

func TestNew_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Cache.Enabled = false

	application, err := New(cfg, arbor.NewLogger(), Options{WithProvider: true})
	require.NoError(t, err)
	defer application.Close()

	assert.Nil(t, application.Cache)
	_, cached := application.Provider.(*market.CachedProvider)
	assert.False(t, cached)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider.Name = "bloomberg"

	_, err := New(cfg, arbor.NewLogger(), Options{WithProvider: true})
	assert.Error(t, err)
}
