package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/storage/badger"
	"github.com/ternarybob/equitydb/internal/storage/sqldb"
)

// NewStorageManager creates the relational storage manager based on config
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	switch config.Storage.SQL.Driver {
	case sqldb.DriverSQLite, sqldb.DriverPostgres, "":
		return sqldb.NewManager(logger, &config.Storage.SQL)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s (expected sqlite or postgres)", config.Storage.SQL.Driver)
	}
}

// NewCacheStorage opens the provider response cache, or returns nil when caching is disabled
func NewCacheStorage(logger arbor.ILogger, config *common.Config) (interfaces.CacheStorage, error) {
	if !config.Storage.Cache.Enabled {
		return nil, nil
	}
	cache, err := badger.NewCacheStorage(logger, &config.Storage.Cache)
	if err != nil {
		return nil, err
	}
	return cache, nil
}
