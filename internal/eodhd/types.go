// Package eodhd is the primary market-data source: daily bars from the EOD
// endpoint, and company profile plus quarterly statements from the
// fundamentals endpoint, adapted to interfaces.MarketDataProvider.
package eodhd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/equitydb/internal/validation"
)

// QueryOption narrows an EOD bar query
type QueryOption func(*queryParams)

type queryParams struct {
	From   time.Time
	To     time.Time
	Period string // always d, the pipeline stores daily bars
	Order  string // a (asc), d (desc)
}

// WithDateRange limits bars to [from, to], both inclusive
func WithDateRange(from, to time.Time) QueryOption {
	return func(p *queryParams) {
		p.From = from
		p.To = to
	}
}

// WithOrder sets the bar order, "a" oldest first or "d" newest first
func WithOrder(order string) QueryOption {
	return func(p *queryParams) {
		p.Order = order
	}
}

// APIError is a non-200 response. A 404 means the symbol is unknown and
// matches validation.ErrNotFound.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

func (e *APIError) Is(target error) bool {
	return target == validation.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// RateLimitError is a 429 from the API or a cancelled wait on the local limiter
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("EODHD rate limit exceeded, retry after %v", e.RetryAfter)
}
