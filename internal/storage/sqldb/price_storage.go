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

// PriceStorage implements interfaces.PriceStorage
type PriceStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewPriceStorage creates a new PriceStorage instance
func NewPriceStorage(db *DB, logger arbor.ILogger) interfaces.PriceStorage {
	return &PriceStorage{db: db, logger: logger}
}

type priceRow struct {
	CompanyID     int64           `db:"company_id"`
	TradeDate     string          `db:"trade_date"`
	Open          sql.NullFloat64 `db:"open_price"`
	High          sql.NullFloat64 `db:"high_price"`
	Low           sql.NullFloat64 `db:"low_price"`
	Close         float64         `db:"close_price"`
	AdjustedClose sql.NullFloat64 `db:"adjusted_close"`
	Volume        int64           `db:"volume"`
}

func (r *priceRow) toModel() models.PriceBar {
	return models.PriceBar{
		CompanyID:     r.CompanyID,
		TradeDate:     parseDate(r.TradeDate),
		Open:          nullFloat(r.Open),
		High:          nullFloat(r.High),
		Low:           nullFloat(r.Low),
		Close:         r.Close,
		AdjustedClose: nullFloat(r.AdjustedClose),
		Volume:        r.Volume,
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}

const upsertPrice = `
	INSERT INTO stock_prices (
		company_id, trade_date, open_price, high_price, low_price,
		close_price, adjusted_close, volume
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (company_id, trade_date) DO UPDATE SET
		open_price = excluded.open_price,
		high_price = excluded.high_price,
		low_price = excluded.low_price,
		close_price = excluded.close_price,
		adjusted_close = excluded.adjusted_close,
		volume = excluded.volume`

const selectPrice = `
	SELECT company_id, trade_date, open_price, high_price, low_price,
		close_price, adjusted_close, volume
	FROM stock_prices`

// UpsertPrices writes bars one at a time. A failed row is logged and skipped;
// the count covers the rows that were written.
func (s *PriceStorage) UpsertPrices(ctx context.Context, bars []models.PriceBar) (int, error) {
	query := s.db.DB().Rebind(upsertPrice)

	written := 0
	var lastErr error
	for i := range bars {
		if err := s.exec(ctx, query, &bars[i]); err != nil {
			lastErr = err
			s.logger.Warn().Err(err).
				Int64("company_id", bars[i].CompanyID).
				Str("trade_date", dateValue(bars[i].TradeDate)).
				Msg("Failed to upsert price")
			continue
		}
		written++
	}

	if written == 0 && lastErr != nil {
		return 0, fmt.Errorf("failed to upsert prices: %w", lastErr)
	}
	return written, nil
}

func (s *PriceStorage) UpsertPrice(ctx context.Context, bar *models.PriceBar) error {
	if err := s.exec(ctx, s.db.DB().Rebind(upsertPrice), bar); err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}

func (s *PriceStorage) exec(ctx context.Context, query string, bar *models.PriceBar) error {
	_, err := s.db.DB().ExecContext(ctx, query,
		bar.CompanyID, dateValue(bar.TradeDate),
		rounded(bar.Open, 4), rounded(bar.High, 4), rounded(bar.Low, 4),
		rounded(&bar.Close, 4), rounded(bar.AdjustedClose, 4), bar.Volume,
	)
	return err
}

// GetPriceHistory returns all bars of the company, oldest first
func (s *PriceStorage) GetPriceHistory(ctx context.Context, companyID int64) ([]models.PriceBar, error) {
	var rows []priceRow
	query := s.db.DB().Rebind(selectPrice + ` WHERE company_id = ? ORDER BY trade_date`)
	if err := s.db.DB().SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for i := range rows {
		bars = append(bars, rows[i].toModel())
	}
	return bars, nil
}

func (s *PriceStorage) GetLatestPrice(ctx context.Context, companyID int64) (*models.PriceBar, error) {
	var row priceRow
	query := s.db.DB().Rebind(selectPrice + ` WHERE company_id = ? ORDER BY trade_date DESC LIMIT 1`)
	err := s.db.DB().GetContext(ctx, &row, query, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, validation.NotFound("price", companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}

	bar := row.toModel()
	return &bar, nil
}
