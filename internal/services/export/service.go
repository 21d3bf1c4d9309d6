// Package export writes stored price history to parquet files, one file
// per company.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// BarRecord is the parquet row layout of one daily bar
type BarRecord struct {
	Ticker        string   `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date          string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp     int64    `parquet:"name=timestamp, type=INT64, encoding=DELTA_BINARY_PACKED"`
	Open          *float64 `parquet:"name=open, type=DOUBLE, repetitiontype=OPTIONAL"`
	High          *float64 `parquet:"name=high, type=DOUBLE, repetitiontype=OPTIONAL"`
	Low           *float64 `parquet:"name=low, type=DOUBLE, repetitiontype=OPTIONAL"`
	Close         float64  `parquet:"name=close, type=DOUBLE"`
	AdjustedClose *float64 `parquet:"name=adjusted_close, type=DOUBLE, repetitiontype=OPTIONAL"`
	Volume        int64    `parquet:"name=volume, type=INT64"`
}

// Result describes one written file
type Result struct {
	Ticker string
	Path   string
	Rows   int
}

// Service exports price bars
type Service struct {
	companies interfaces.CompanyStorage
	prices    interfaces.PriceStorage
	dir       string
	logger    arbor.ILogger
}

func NewService(storage interfaces.StorageManager, dir string, logger arbor.ILogger) *Service {
	if dir == "" {
		dir = "./data/export"
	}
	return &Service{
		companies: storage.CompanyStorage(),
		prices:    storage.PriceStorage(),
		dir:       dir,
		logger:    logger,
	}
}

// Export writes <dir>/<TICKER>.parquet for each requested ticker, or for
// every stored company when tickers is empty. Companies without bars are
// skipped.
func (s *Service) Export(ctx context.Context, tickers []string) ([]Result, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	companies, err := s.resolve(ctx, tickers)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(companies))
	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		bars, err := s.prices.GetPriceHistory(ctx, company.ID)
		if err != nil {
			return results, fmt.Errorf("failed to load prices for %s: %w", company.Ticker, err)
		}
		if len(bars) == 0 {
			s.logger.Debug().Str("ticker", company.Ticker).Msg("No prices to export")
			continue
		}

		path := filepath.Join(s.dir, company.Ticker+".parquet")
		if err := writeBars(path, company.Ticker, bars); err != nil {
			return results, fmt.Errorf("failed to export %s: %w", company.Ticker, err)
		}

		s.logger.Info().Str("ticker", company.Ticker).Str("path", path).Int("rows", len(bars)).Msg("Prices exported")
		results = append(results, Result{Ticker: company.Ticker, Path: path, Rows: len(bars)})
	}
	return results, nil
}

func (s *Service) resolve(ctx context.Context, tickers []string) ([]*models.Company, error) {
	if len(tickers) == 0 {
		return s.companies.ListCompanies(ctx)
	}
	companies := make([]*models.Company, 0, len(tickers))
	for _, t := range tickers {
		company, err := s.companies.GetCompanyByTicker(ctx, validation.NormalizeTicker(t))
		if errors.Is(err, validation.ErrNotFound) {
			s.logger.Warn().Str("ticker", t).Msg("Company not in database - skipping export")
			continue
		}
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, nil
}

// writeBars writes to a temporary file and renames it into place so a
// failed export never leaves a truncated file behind
func writeBars(path, ticker string, bars []models.PriceBar) error {
	tmp := path + ".tmp"

	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(BarRecord), 2)
	if err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	pw.PageSize = 8 * 1024

	for _, bar := range bars {
		record := BarRecord{
			Ticker:        ticker,
			Date:          bar.TradeDate.Format("2006-01-02"),
			Timestamp:     bar.TradeDate.Unix(),
			Open:          bar.Open,
			High:          bar.High,
			Low:           bar.Low,
			Close:         bar.Close,
			AdjustedClose: bar.AdjustedClose,
			Volume:        bar.Volume,
		}
		if err := pw.Write(record); err != nil {
			fw.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write parquet row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
