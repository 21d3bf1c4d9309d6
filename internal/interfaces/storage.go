// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 4:10:00 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/equitydb/internal/models"
)

// CompanyStorage - sectors and companies
type CompanyStorage interface {
	// GetOrCreateSector returns the id of the named sector, inserting it when missing
	GetOrCreateSector(ctx context.Context, name string) (int64, error)

	// UpsertCompany inserts or updates by ticker and returns the company id
	UpsertCompany(ctx context.Context, company *models.Company) (int64, error)

	GetCompanyByTicker(ctx context.Context, ticker string) (*models.Company, error)
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]*models.Company, error)
}

// PriceStorage - daily OHLCV bars keyed by (company_id, trade_date)
type PriceStorage interface {
	// UpsertPrices writes the bars and returns how many rows were written
	UpsertPrices(ctx context.Context, bars []models.PriceBar) (int, error)
	UpsertPrice(ctx context.Context, bar *models.PriceBar) error

	// GetPriceHistory returns bars in chronological order
	GetPriceHistory(ctx context.Context, companyID int64) ([]models.PriceBar, error)
	GetLatestPrice(ctx context.Context, companyID int64) (*models.PriceBar, error)
}

// StatementStorage - statement headers and their detail tables
type StatementStorage interface {
	// UpsertStatementHeader returns the statement id for the natural key
	UpsertStatementHeader(ctx context.Context, header *models.StatementHeader) (int64, error)
	UpsertIncomeStatement(ctx context.Context, stmt *models.IncomeStatement) error
	UpsertBalanceSheet(ctx context.Context, stmt *models.BalanceSheet) error
	UpsertCashFlowStatement(ctx context.Context, stmt *models.CashFlowStatement) error

	GetLatestIncomeStatement(ctx context.Context, companyID int64) (*models.IncomeStatement, error)
	GetLatestBalanceSheet(ctx context.Context, companyID int64) (*models.BalanceSheet, error)

	// GetEPSHistory returns diluted EPS for the latest quarters, newest first.
	// Entries are nil where the quarter has no EPS.
	GetEPSHistory(ctx context.Context, companyID int64, limit int) ([]*float64, error)
	GetRevenueHistory(ctx context.Context, companyID int64, limit int) ([]*float64, error)
}

// MetricsStorage - valuation snapshots keyed by (company_id, calculation_date)
type MetricsStorage interface {
	UpsertMetrics(ctx context.Context, metrics *models.ValuationMetrics) error
	GetLatestMetrics(ctx context.Context, companyID int64) (*models.ValuationMetrics, error)
}

// ForecastStorage - append-only forecast rows
type ForecastStorage interface {
	// InsertForecast writes a new row and sets forecast.ID
	InsertForecast(ctx context.Context, forecast *models.Forecast) error
	GetForecastsByCompanyAndDate(ctx context.Context, companyID int64, forecastDate time.Time) ([]*models.Forecast, error)

	// GetLatestForecasts returns the newest forecast per company with ticker and sector joined
	GetLatestForecasts(ctx context.Context) ([]*models.Forecast, error)
	GetRecommendationDistribution(ctx context.Context) ([]models.RecommendationStat, error)
	CountForecasts(ctx context.Context, companyID int64) (int, error)
}

// RunStorage - one row per pipeline execution
type RunStorage interface {
	StartRun(ctx context.Context, run *models.EtlRun) error
	FinishRun(ctx context.Context, runID string, processed, failed int) error
	GetRun(ctx context.Context, runID string) (*models.EtlRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.EtlRun, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	CompanyStorage() CompanyStorage
	PriceStorage() PriceStorage
	StatementStorage() StatementStorage
	MetricsStorage() MetricsStorage
	ForecastStorage() ForecastStorage
	RunStorage() RunStorage
	Close() error
}
