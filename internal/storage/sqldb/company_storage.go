package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// CompanyStorage implements interfaces.CompanyStorage
type CompanyStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewCompanyStorage creates a new CompanyStorage instance
func NewCompanyStorage(db *DB, logger arbor.ILogger) interfaces.CompanyStorage {
	return &CompanyStorage{db: db, logger: logger}
}

type companyRow struct {
	ID          int64           `db:"company_id"`
	Ticker      string          `db:"ticker_symbol"`
	Name        string          `db:"company_name"`
	SectorID    sql.NullInt64   `db:"sector_id"`
	SectorName  sql.NullString  `db:"sector_name"`
	MarketCap   sql.NullFloat64 `db:"market_cap"`
	Country     string          `db:"country"`
	Exchange    string          `db:"exchange"`
	Currency    string          `db:"currency"`
	Description string          `db:"description"`
}

func (r *companyRow) toModel() *models.Company {
	c := &models.Company{
		ID:          r.ID,
		Ticker:      r.Ticker,
		Name:        r.Name,
		SectorID:    r.SectorID.Int64,
		SectorName:  r.SectorName.String,
		Country:     r.Country,
		Exchange:    r.Exchange,
		Currency:    r.Currency,
		Description: r.Description,
	}
	if r.MarketCap.Valid {
		c.MarketCap = models.Float(r.MarketCap.Float64)
	}
	return c
}

const selectCompany = `
	SELECT c.company_id, c.ticker_symbol, c.company_name, c.sector_id, s.sector_name,
		c.market_cap, c.country, c.exchange, c.currency, c.description
	FROM companies c
	LEFT JOIN sectors s ON s.sector_id = c.sector_id`

// GetOrCreateSector returns the sector id, inserting the sector when it is new
func (s *CompanyStorage) GetOrCreateSector(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: sector name is required", validation.ErrValidation)
	}

	query := s.db.DB().Rebind(`
		INSERT INTO sectors (sector_name) VALUES (?)
		ON CONFLICT (sector_name) DO UPDATE SET sector_name = excluded.sector_name
		RETURNING sector_id`)

	var id int64
	if err := s.db.DB().QueryRowxContext(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get or create sector %s: %w", name, err)
	}
	return id, nil
}

// UpsertCompany inserts or updates the company by ticker. Missing optional
// fields keep their stored values.
func (s *CompanyStorage) UpsertCompany(ctx context.Context, company *models.Company) (int64, error) {
	var sectorID interface{}
	if company.SectorID > 0 {
		sectorID = company.SectorID
	}

	query := s.db.DB().Rebind(`
		INSERT INTO companies (
			ticker_symbol, company_name, sector_id, market_cap,
			country, exchange, currency, description, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker_symbol) DO UPDATE SET
			company_name = excluded.company_name,
			sector_id = COALESCE(excluded.sector_id, companies.sector_id),
			market_cap = COALESCE(excluded.market_cap, companies.market_cap),
			country = excluded.country,
			exchange = excluded.exchange,
			currency = excluded.currency,
			description = excluded.description,
			updated_at = excluded.updated_at
		RETURNING company_id`)

	var id int64
	err := s.db.DB().QueryRowxContext(ctx, query,
		company.Ticker, company.Name, sectorID, rounded(company.MarketCap, 2),
		company.Country, company.Exchange, company.Currency, company.Description,
		timestampValue(time.Now()),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert company %s: %w", company.Ticker, err)
	}

	company.ID = id
	s.logger.Debug().Str("ticker", company.Ticker).Int64("company_id", id).Msg("Company upserted")
	return id, nil
}

// GetCompanyByTicker returns validation.ErrNotFound when the ticker is unknown
func (s *CompanyStorage) GetCompanyByTicker(ctx context.Context, ticker string) (*models.Company, error) {
	ticker = validation.NormalizeTicker(ticker)

	var row companyRow
	err := s.db.DB().GetContext(ctx, &row, s.db.DB().Rebind(selectCompany+` WHERE c.ticker_symbol = ?`), ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, validation.NotFound("company", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company %s: %w", ticker, err)
	}
	return row.toModel(), nil
}

func (s *CompanyStorage) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	var row companyRow
	err := s.db.DB().GetContext(ctx, &row, s.db.DB().Rebind(selectCompany+` WHERE c.company_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, validation.NotFound("company", fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company %d: %w", id, err)
	}
	return row.toModel(), nil
}

// ListCompanies returns all companies ordered by ticker
func (s *CompanyStorage) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	var rows []companyRow
	if err := s.db.DB().SelectContext(ctx, &rows, selectCompany+` ORDER BY c.ticker_symbol`); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	companies := make([]*models.Company, 0, len(rows))
	for i := range rows {
		companies = append(companies, rows[i].toModel())
	}
	return companies, nil
}
