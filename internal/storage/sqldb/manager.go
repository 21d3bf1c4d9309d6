package sqldb

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/interfaces"
)

// Manager implements the StorageManager interface
type Manager struct {
	db        *DB
	company   interfaces.CompanyStorage
	price     interfaces.PriceStorage
	statement interfaces.StatementStorage
	metrics   interfaces.MetricsStorage
	forecast  interfaces.ForecastStorage
	run       interfaces.RunStorage
	logger    arbor.ILogger
}

// NewManager opens the database and wires every storage to it
func NewManager(logger arbor.ILogger, config *common.SQLConfig) (*Manager, error) {
	db, err := NewDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:        db,
		company:   NewCompanyStorage(db, logger),
		price:     NewPriceStorage(db, logger),
		statement: NewStatementStorage(db, logger),
		metrics:   NewMetricsStorage(db, logger),
		forecast:  NewForecastStorage(db, logger),
		run:       NewRunStorage(db, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) CompanyStorage() interfaces.CompanyStorage {
	return m.company
}

func (m *Manager) PriceStorage() interfaces.PriceStorage {
	return m.price
}

func (m *Manager) StatementStorage() interfaces.StatementStorage {
	return m.statement
}

func (m *Manager) MetricsStorage() interfaces.MetricsStorage {
	return m.metrics
}

func (m *Manager) ForecastStorage() interfaces.ForecastStorage {
	return m.forecast
}

func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.run
}

// DB returns the underlying database
func (m *Manager) DB() *DB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
