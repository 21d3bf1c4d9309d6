package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "eodhd", cfg.Provider.Name)
	assert.Equal(t, "sqlite", cfg.Storage.SQL.Driver)
	assert.Equal(t, 4, cfg.Pipeline.MaxStatements)
	assert.Equal(t, 15, cfg.Pipeline.PeriodicIntervalDays)
	assert.Equal(t, 30, cfg.Pipeline.ForecastHorizonDays)
	assert.Equal(t, "2s", cfg.Pipeline.SleepBetween)
	assert.Equal(t, "v3", cfg.Pipeline.FieldMapVersion)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.toml", `
[provider]
name = "yahoo"
rate_limit = 5

[pipeline]
max_statements = 8
`)
	override := writeFile(t, dir, "override.toml", `
[provider]
rate_limit = 2

[storage.sql]
path = "/tmp/override.db"
`)

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "yahoo", cfg.Provider.Name)
	assert.Equal(t, 2, cfg.Provider.RateLimit)
	assert.Equal(t, 8, cfg.Pipeline.MaxStatements)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.SQL.Path)
	// untouched defaults survive
	assert.Equal(t, "sqlite", cfg.Storage.SQL.Driver)
}

func TestLoadFromFiles_Errors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := writeFile(t, t.TempDir(), "bad.toml", "[provider\nname=")
	_, err = LoadFromFiles(bad)
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("EQUITYDB_PROVIDER", "yahoo")
	t.Setenv("EQUITYDB_DB_PATH", "/var/lib/equitydb.db")
	t.Setenv("EQUITYDB_PERIODIC", "true")
	t.Setenv("EQUITYDB_LOG_OUTPUT", "stdout, file")
	t.Setenv("EQUITYDB_SLEEP_BETWEEN", "not-a-duration")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "yahoo", cfg.Provider.Name)
	assert.Equal(t, "/var/lib/equitydb.db", cfg.Storage.SQL.Path)
	assert.True(t, cfg.Pipeline.Periodic)
	assert.Equal(t, []string{"stdout", "file"}, cfg.Logging.Output)
	// invalid durations are ignored
	assert.Equal(t, "2s", cfg.Pipeline.SleepBetween)
}

func TestConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Error(t, cfg.Validate(), "eodhd without api key")

	cfg.Provider.APIKey = "demo"
	assert.NoError(t, cfg.Validate())

	cfg.Provider.Name = "bloomberg"
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Provider.Name = "yahoo"
	cfg.Storage.SQL.Driver = "postgres"
	assert.Error(t, cfg.Validate(), "postgres without dsn")
	cfg.Storage.SQL.DSN = "postgres://localhost/equitydb?sslmode=disable"
	assert.NoError(t, cfg.Validate())

	cfg.Pipeline.SleepBetween = "soon"
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Provider.Name = "yahoo"
	cfg.Schedule.Enabled = true
	cfg.Schedule.Cron = "* * * * *"
	assert.Error(t, cfg.Validate())
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("30 18 * * 1-5"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))

	assert.Error(t, ValidateSchedule("* * * * *"))
	assert.Error(t, ValidateSchedule("*/2 * * * *"))
	assert.Error(t, ValidateSchedule("not a cron"))
	assert.Error(t, ValidateSchedule(""))
}
