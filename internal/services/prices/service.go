package prices

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// Service writes validated price bars
type Service struct {
	companies interfaces.CompanyStorage
	prices    interfaces.PriceStorage
	validator *validation.Validator
	logger    arbor.ILogger
}

func NewService(storage interfaces.StorageManager, validator *validation.Validator, logger arbor.ILogger) *Service {
	return &Service{
		companies: storage.CompanyStorage(),
		prices:    storage.PriceStorage(),
		validator: validator,
		logger:    logger,
	}
}

// AddPrice validates bar and upserts it by (company, trade date). A missing
// adjusted close takes the close.
func (s *Service) AddPrice(ctx context.Context, bar *models.PriceBar) error {
	if bar.CompanyID <= 0 {
		return &validation.ValidationError{Field: "company_id", Message: "company is required"}
	}
	if bar.AdjustedClose == nil {
		bar.AdjustedClose = models.Float(bar.Close)
	}
	if err := s.validator.PriceBar(bar); err != nil {
		return err
	}

	if _, err := s.companies.GetCompany(ctx, bar.CompanyID); err != nil {
		return err
	}

	if err := s.prices.UpsertPrice(ctx, bar); err != nil {
		return fmt.Errorf("failed to store price: %w", err)
	}

	s.logger.Debug().
		Int64("company_id", bar.CompanyID).
		Str("trade_date", bar.TradeDate.Format("2006-01-02")).
		Msg("Price stored")
	return nil
}

// History returns the stored bars of a ticker, oldest first
func (s *Service) History(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	if err := s.validator.Ticker(ticker); err != nil {
		return nil, err
	}
	company, err := s.companies.GetCompanyByTicker(ctx, validation.NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}
	return s.prices.GetPriceHistory(ctx, company.ID)
}
