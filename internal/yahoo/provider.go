// Package yahoo is a fallback market-data provider on Yahoo Finance. It serves
// profiles and daily bars; quarterly statements are not available.
package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// ProviderName identifies Yahoo in config and logs
const ProviderName = "yahoo"

// suffixes maps exchange codes to Yahoo ticker suffixes
var suffixes = map[string]string{
	"US":    "",
	"AU":    ".AX",
	"LSE":   ".L",
	"TO":    ".TO",
	"XETRA": ".DE",
	"PA":    ".PA",
	"HK":    ".HK",
}

// Provider implements interfaces.MarketDataProvider on finance-go
type Provider struct {
	exchange string
	timeout  time.Duration
	logger   arbor.ILogger

	fetchEquity func(symbol string) (*finance.Equity, error)
	fetchBars   func(params *chart.Params) ([]finance.ChartBar, error)
}

var _ interfaces.MarketDataProvider = (*Provider)(nil)

func NewProvider(exchange string, timeout time.Duration, logger arbor.ILogger) *Provider {
	if exchange == "" {
		exchange = "US"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Provider{
		exchange:    exchange,
		timeout:     timeout,
		logger:      logger,
		fetchEquity: equity.Get,
		fetchBars:   chartBars,
	}
}

func chartBars(params *chart.Params) ([]finance.ChartBar, error) {
	iter := chart.Get(params)
	var bars []finance.ChartBar
	for iter.Next() {
		bars = append(bars, *iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) symbol(ticker string) string {
	s := common.ParseSymbol(ticker, p.exchange)
	return s.Code + suffixes[s.Exchange]
}

// call runs a blocking finance-go request under the provider timeout
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("yahoo request timed out: %w", ctx.Err())
	case r := <-ch:
		return r.value, r.err
	}
}

func (p *Provider) GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	symbol := p.symbol(ticker)

	q, err := call(ctx, p.timeout, func() (*finance.Equity, error) { return p.fetchEquity(symbol) })
	if err != nil {
		return nil, fmt.Errorf("failed to get yahoo quote for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, validation.NotFound("yahoo quote", symbol)
	}

	name := strings.TrimSpace(q.LongName)
	if name == "" {
		name = strings.TrimSpace(q.ShortName)
	}

	profile := &models.CompanyProfile{
		Ticker:      common.ParseSymbol(ticker, p.exchange).Code,
		Name:        name,
		Exchange:    q.FullExchangeName,
		Currency:    q.CurrencyID,
		TrailingPE:  positive(q.TrailingPE),
		PriceToBook: positive(q.PriceToBook),
	}
	if q.MarketCap > 0 {
		profile.MarketCap = models.Float(float64(q.MarketCap))
	}
	return profile, nil
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return models.Float(v)
}

// GetPriceHistory returns daily bars between from and to, oldest first
func (p *Provider) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	symbol := p.symbol(ticker)
	// chart end is exclusive
	end := to.AddDate(0, 0, 1)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&from),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	raw, err := call(ctx, p.timeout, func() ([]finance.ChartBar, error) { return p.fetchBars(params) })
	if err != nil {
		return nil, fmt.Errorf("failed to get yahoo chart for %s: %w", symbol, err)
	}

	bars := make([]models.PriceBar, 0, len(raw))
	for _, b := range raw {
		date := time.Unix(int64(b.Timestamp), 0).UTC()
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		closePrice, _ := b.Close.Float64()
		adjClose, _ := b.AdjClose.Float64()

		bars = append(bars, models.PriceBar{
			TradeDate:     date,
			Open:          models.Float(open),
			High:          models.Float(high),
			Low:           models.Float(low),
			Close:         closePrice,
			AdjustedClose: models.Float(adjClose),
			Volume:        int64(b.Volume),
		})
	}

	p.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Yahoo chart fetched")
	return bars, nil
}

// GetQuarterlyStatements is not served by Yahoo
func (p *Provider) GetQuarterlyStatements(ctx context.Context, ticker string) (*models.QuarterlyStatements, error) {
	return nil, fmt.Errorf("yahoo quarterly statements for %s: %w", ticker, interfaces.ErrUnsupported)
}
