// Package sqldb is the relational store for companies, prices, statements,
// metrics, forecasts and run records. It runs on SQLite (modernc, no cgo)
// or PostgreSQL (lib/pq) behind sqlx, with goose migrations embedded per
// dialect.
package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"

	"github.com/ternarybob/equitydb/internal/common"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func init() {
	// modernc registers as "sqlite", which sqlx does not know as a '?' driver
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB manages the relational database connection
type DB struct {
	db     *sqlx.DB
	driver string
	logger arbor.ILogger
	config *common.SQLConfig
}

// NewDB opens the configured database, applies connection settings and
// brings the schema up to date
func NewDB(logger arbor.ILogger, config *common.SQLConfig) (*DB, error) {
	driver := config.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var dsn string
	switch driver {
	case DriverSQLite:
		if config.ResetOnStartup {
			resetSQLiteFiles(logger, config.Path)
		}
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = sqliteDSN(config)
	case DriverPostgres:
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires storage.sql.dsn")
		}
		dsn = config.DSN
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s (expected sqlite or postgres)", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &DB{
		db:     db,
		driver: driver,
		logger: logger,
		config: config,
	}

	if err := d.configure(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Str("driver", driver).Str("path", config.Path).Msg("Database initialized")
	return d, nil
}

func resetSQLiteFiles(logger arbor.ILogger, path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		logger.Debug().Str("path", p).Msg("Deleting existing database (reset_on_startup=true)")
		if err := os.Remove(p); err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("Failed to delete database file")
		}
	}
}

// sqliteDSN carries the pragmas as _pragma parameters so every pooled
// connection gets them, not only the first one
func sqliteDSN(config *common.SQLConfig) string {
	pragmas := []string{
		fmt.Sprintf("cache_size(-%d)", config.CacheSizeMB*1024), // negative for KB
		fmt.Sprintf("busy_timeout(%d)", config.BusyTimeoutMS),
		"foreign_keys(1)",
		"synchronous(NORMAL)",
	}
	if config.WALMode {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}

	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return config.Path + "?" + strings.Join(params, "&")
}

// configure sets pool limits and checks the connection
func (d *DB) configure() error {
	if d.config.MaxOpenConnections > 0 {
		d.db.SetMaxOpenConns(d.config.MaxOpenConnections)
	}

	if d.driver == DriverSQLite {
		var fk int
		if err := d.db.Get(&fk, "PRAGMA foreign_keys"); err != nil {
			return fmt.Errorf("failed to read pragmas: %w", err)
		}
		d.logger.Debug().Int("foreign_keys", fk).Bool("wal", d.config.WALMode).Msg("SQLite pragmas applied")
		return nil
	}
	return d.db.Ping()
}

// migrate applies the embedded migrations for the active dialect
func (d *DB) migrate(ctx context.Context) error {
	dialect := goose.DialectSQLite3
	if d.driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrationsFS, "migrations/"+d.driver)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, d.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		d.logger.Debug().
			Int64("version", r.Source.Version).
			Str("duration", r.Duration.String()).
			Msg("Applied migration")
	}
	return nil
}

// DB returns the underlying sqlx handle
func (d *DB) DB() *sqlx.DB {
	return d.db
}

// Driver returns the active driver name
func (d *DB) Driver() string {
	return d.driver
}

// Close closes the database connection
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// BeginTx starts a new transaction
func (d *DB) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return d.db.BeginTxx(ctx, &sql.TxOptions{})
}

// Ping verifies the database connection
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
