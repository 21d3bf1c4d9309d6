package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
)

func newStubProvider(exchange string) *Provider {
	p := NewProvider(exchange, time.Second, arbor.NewLogger())
	p.fetchEquity = func(symbol string) (*finance.Equity, error) {
		return nil, errors.New("unexpected quote call")
	}
	p.fetchBars = func(params *chart.Params) ([]finance.ChartBar, error) {
		return nil, errors.New("unexpected chart call")
	}
	return p
}

func TestProvider_GetProfile(t *testing.T) {
	p := newStubProvider("US")
	var requested string
	p.fetchEquity = func(symbol string) (*finance.Equity, error) {
		requested = symbol
		return &finance.Equity{
			Quote: finance.Quote{
				ShortName:        "Microsoft Corp",
				CurrencyID:       "USD",
				FullExchangeName: "NasdaqGS",
			},
			LongName:    "Microsoft Corporation",
			TrailingPE:  36.2,
			PriceToBook: 0,
			MarketCap:   3100000000000,
		}, nil
	}

	profile, err := p.GetProfile(context.Background(), "msft")
	require.NoError(t, err)

	assert.Equal(t, "MSFT", requested)
	assert.Equal(t, "MSFT", profile.Ticker)
	assert.Equal(t, "Microsoft Corporation", profile.Name)
	assert.Equal(t, "NasdaqGS", profile.Exchange)
	assert.Equal(t, "USD", profile.Currency)
	assert.Equal(t, 36.2, *profile.TrailingPE)
	assert.Nil(t, profile.PriceToBook)
	assert.Equal(t, 3.1e12, *profile.MarketCap)
	assert.Empty(t, profile.Sector)
}

func TestProvider_SymbolSuffix(t *testing.T) {
	p := newStubProvider("AU")
	assert.Equal(t, "BHP.AX", p.symbol("BHP"))
	assert.Equal(t, "AAPL", p.symbol("AAPL.US"))
	assert.Equal(t, "VOD.L", p.symbol("vod.lse"))
}

func TestProvider_GetPriceHistory(t *testing.T) {
	p := newStubProvider("US")
	day1 := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 3, 14, 30, 0, 0, time.UTC)

	var params *chart.Params
	p.fetchBars = func(pp *chart.Params) ([]finance.ChartBar, error) {
		params = pp
		return []finance.ChartBar{
			{
				Open: decimal.NewFromFloat(248.93), High: decimal.NewFromFloat(249.1),
				Low: decimal.NewFromFloat(241.82), Close: decimal.NewFromFloat(243.85),
				AdjClose: decimal.NewFromFloat(243.26), Volume: 55740700, Timestamp: int(day1.Unix()),
			},
			{
				Open: decimal.NewFromFloat(243.36), High: decimal.NewFromFloat(244.18),
				Low: decimal.NewFromFloat(241.89), Close: decimal.NewFromFloat(243.36),
				AdjClose: decimal.NewFromFloat(242.77), Volume: 40244100, Timestamp: int(day2.Unix()),
			},
		}, nil
	}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	bars, err := p.GetPriceHistory(context.Background(), "AAPL", from, to)
	require.NoError(t, err)

	require.NotNil(t, params)
	assert.Equal(t, "AAPL", params.Symbol)

	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].TradeDate)
	assert.Equal(t, 243.85, bars[0].Close)
	assert.Equal(t, 248.93, *bars[0].Open)
	assert.Equal(t, 243.26, *bars[0].AdjustedClose)
	assert.Equal(t, int64(40244100), bars[1].Volume)
}

func TestProvider_StatementsUnsupported(t *testing.T) {
	p := newStubProvider("US")
	_, err := p.GetQuarterlyStatements(context.Background(), "AAPL")
	assert.ErrorIs(t, err, interfaces.ErrUnsupported)
}

func TestProvider_Timeout(t *testing.T) {
	p := newStubProvider("US")
	p.timeout = 20 * time.Millisecond
	release := make(chan struct{})
	defer close(release)
	p.fetchEquity = func(symbol string) (*finance.Equity, error) {
		<-release
		return &finance.Equity{}, nil
	}

	_, err := p.GetProfile(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
