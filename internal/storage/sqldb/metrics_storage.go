package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// MetricsStorage implements interfaces.MetricsStorage
type MetricsStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewMetricsStorage creates a new MetricsStorage instance
func NewMetricsStorage(db *DB, logger arbor.ILogger) interfaces.MetricsStorage {
	return &MetricsStorage{db: db, logger: logger}
}

type metricsRow struct {
	CompanyID       int64    `db:"company_id"`
	CalculationDate string   `db:"calculation_date"`
	MarketCap       *float64 `db:"market_cap"`
	PERatio         *float64 `db:"pe_ratio"`
	PBRatio         *float64 `db:"pb_ratio"`
	PSRatio         *float64 `db:"ps_ratio"`
	ROE             *float64 `db:"roe"`
	ROA             *float64 `db:"roa"`
	DebtToEquity    *float64 `db:"debt_to_equity"`
	CurrentRatio    *float64 `db:"current_ratio"`
	QuickRatio      *float64 `db:"quick_ratio"`
	GrossMargin     *float64 `db:"gross_margin"`
	OperatingMargin *float64 `db:"operating_margin"`
	NetMargin       *float64 `db:"net_margin"`
}

// UpsertMetrics writes the snapshot keyed by (company_id, calculation_date)
func (s *MetricsStorage) UpsertMetrics(ctx context.Context, m *models.ValuationMetrics) error {
	query := s.db.DB().Rebind(`
		INSERT INTO valuation_metrics (
			company_id, calculation_date, market_cap, pe_ratio, pb_ratio, ps_ratio,
			roe, roa, debt_to_equity, current_ratio, quick_ratio,
			gross_margin, operating_margin, net_margin
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, calculation_date) DO UPDATE SET
			market_cap = excluded.market_cap,
			pe_ratio = excluded.pe_ratio,
			pb_ratio = excluded.pb_ratio,
			ps_ratio = excluded.ps_ratio,
			roe = excluded.roe,
			roa = excluded.roa,
			debt_to_equity = excluded.debt_to_equity,
			current_ratio = excluded.current_ratio,
			quick_ratio = excluded.quick_ratio,
			gross_margin = excluded.gross_margin,
			operating_margin = excluded.operating_margin,
			net_margin = excluded.net_margin`)

	_, err := s.db.DB().ExecContext(ctx, query,
		m.CompanyID, dateValue(m.CalculationDate), rounded(m.MarketCap, 2),
		rounded(m.PERatio, 4), rounded(m.PBRatio, 4), rounded(m.PSRatio, 4),
		rounded(m.ROE, 4), rounded(m.ROA, 4), rounded(m.DebtToEquity, 4),
		rounded(m.CurrentRatio, 4), rounded(m.QuickRatio, 4),
		rounded(m.GrossMargin, 4), rounded(m.OperatingMargin, 4), rounded(m.NetMargin, 4),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert valuation metrics: %w", err)
	}

	s.logger.Debug().Int64("company_id", m.CompanyID).Int("metrics", m.Count()).Msg("Valuation metrics upserted")
	return nil
}

func (s *MetricsStorage) GetLatestMetrics(ctx context.Context, companyID int64) (*models.ValuationMetrics, error) {
	var row metricsRow
	query := s.db.DB().Rebind(`
		SELECT company_id, calculation_date, market_cap, pe_ratio, pb_ratio, ps_ratio,
			roe, roa, debt_to_equity, current_ratio, quick_ratio,
			gross_margin, operating_margin, net_margin
		FROM valuation_metrics
		WHERE company_id = ?
		ORDER BY calculation_date DESC
		LIMIT 1`)

	err := s.db.DB().GetContext(ctx, &row, query, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, validation.NotFound("valuation metrics", companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest metrics: %w", err)
	}

	return &models.ValuationMetrics{
		CompanyID:       row.CompanyID,
		CalculationDate: parseDate(row.CalculationDate),
		MarketCap:       row.MarketCap,
		PERatio:         row.PERatio,
		PBRatio:         row.PBRatio,
		PSRatio:         row.PSRatio,
		ROE:             row.ROE,
		ROA:             row.ROA,
		DebtToEquity:    row.DebtToEquity,
		CurrentRatio:    row.CurrentRatio,
		QuickRatio:      row.QuickRatio,
		GrossMargin:     row.GrossMargin,
		OperatingMargin: row.OperatingMargin,
		NetMargin:       row.NetMargin,
	}, nil
}
