package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/equitydb/internal/models"
)

// ErrUnsupported is returned when a provider cannot serve a data set
var ErrUnsupported = errors.New("not supported by provider")

// MarketDataProvider fetches company data from an external market-data API
type MarketDataProvider interface {
	Name() string

	GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error)

	// GetPriceHistory returns daily bars between from and to inclusive, oldest first.
	// CompanyID is left zero on the returned bars.
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error)

	// GetQuarterlyStatements returns each statement list newest period first
	GetQuarterlyStatements(ctx context.Context, ticker string) (*models.QuarterlyStatements, error)
}
