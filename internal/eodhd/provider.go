package eodhd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
)

// ProviderName identifies EODHD in config and logs
const ProviderName = "eodhd"

// parkWindow bounds how long a parked fundamentals response may serve statements
const parkWindow = time.Minute

// sharesKey is reported on the balance sheet; income mapping needs it for EPS
const sharesKey = "commonStockSharesOutstanding"

// Provider implements interfaces.MarketDataProvider on the EODHD API
type Provider struct {
	client   *Client
	exchange string
	logger   arbor.ILogger

	// profile and statements come from one fundamentals call. GetProfile
	// always fetches and parks the response; the next statements call for
	// the same symbol within parkWindow takes it and clears it.
	mu         sync.Mutex
	lastSymbol string
	last       *FundamentalsResponse
	parkedAt   time.Time
	now        func() time.Time
}

var _ interfaces.MarketDataProvider = (*Provider)(nil)

// NewProvider wraps client. Bare tickers are qualified with exchange.
func NewProvider(client *Client, exchange string, logger arbor.ILogger) *Provider {
	if exchange == "" {
		exchange = "US"
	}
	return &Provider{client: client, exchange: exchange, logger: logger, now: time.Now}
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) symbol(ticker string) string {
	return common.ParseSymbol(ticker, p.exchange).String()
}

func (p *Provider) fundamentals(ctx context.Context, symbol string) (*FundamentalsResponse, error) {
	f, err := p.client.GetFundamentals(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get fundamentals for %s: %w", symbol, err)
	}
	if f.General == nil {
		return nil, fmt.Errorf("no fundamentals returned for %s", symbol)
	}
	return f, nil
}

// park keeps f for the next statements call of symbol
func (p *Provider) park(symbol string, f *FundamentalsResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSymbol = symbol
	p.last = f
	p.parkedAt = p.now()
}

// take returns the parked response for symbol, if any, and clears it
func (p *Provider) take(symbol string) *FundamentalsResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.last
	matched := f != nil && p.lastSymbol == symbol && p.now().Sub(p.parkedAt) <= parkWindow
	p.lastSymbol = ""
	p.last = nil
	if !matched {
		return nil
	}
	return f
}

// GetProfile maps the General, Highlights and Valuation sections
func (p *Provider) GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	symbol := p.symbol(ticker)
	f, err := p.fundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	p.park(symbol, f)

	g := f.General
	profile := &models.CompanyProfile{
		Ticker:      common.ParseSymbol(ticker, p.exchange).Code,
		Name:        strings.TrimSpace(g.Name),
		Sector:      g.GicSector,
		Country:     g.CountryName,
		Exchange:    g.Exchange,
		Currency:    g.CurrencyCode,
		Description: g.Description,
	}
	if profile.Sector == "" {
		profile.Sector = g.Sector
	}

	if h := f.Highlights; h != nil {
		profile.MarketCap = h.MarketCapitalization
		profile.TrailingPE = h.PERatio
		profile.ReturnOnEquity = h.ReturnOnEquityTTM
		profile.ReturnOnAssets = h.ReturnOnAssetsTTM
		profile.OperatingMargin = h.OperatingMarginTTM
		profile.ProfitMargin = h.ProfitMargin
		if h.GrossProfitTTM != nil && h.RevenueTTM != nil && *h.RevenueTTM > 0 {
			profile.GrossMargin = models.Float(*h.GrossProfitTTM / *h.RevenueTTM)
		}
	}
	if v := f.Valuation; v != nil {
		if v.TrailingPE != nil {
			profile.TrailingPE = v.TrailingPE
		}
		profile.PriceToBook = v.PriceBookMRQ
		profile.PriceToSales = v.PriceSalesTTM
	}

	return profile, nil
}

// GetPriceHistory returns daily bars between from and to, oldest first
func (p *Provider) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	symbol := p.symbol(ticker)

	eod, err := p.client.GetEOD(ctx, symbol, WithDateRange(from, to), WithOrder("a"))
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", symbol, err)
	}

	bars := make([]models.PriceBar, 0, len(eod))
	for _, d := range eod {
		if d.Date.IsZero() {
			continue
		}
		bars = append(bars, models.PriceBar{
			TradeDate:     d.Date,
			Open:          models.Float(d.Open),
			High:          models.Float(d.High),
			Low:           models.Float(d.Low),
			Close:         d.Close,
			AdjustedClose: models.Float(d.AdjustedClose),
			Volume:        int64(d.Volume),
		})
	}
	return bars, nil
}

// GetQuarterlyStatements returns the quarterly income, balance and cash-flow
// records newest first. Income records borrow the share count from the
// balance sheet of the same period when they do not carry one.
func (p *Provider) GetQuarterlyStatements(ctx context.Context, ticker string) (*models.QuarterlyStatements, error) {
	symbol := p.symbol(ticker)
	f := p.take(symbol)
	if f == nil {
		var err error
		if f, err = p.fundamentals(ctx, symbol); err != nil {
			return nil, err
		}
	}

	result := &models.QuarterlyStatements{}
	if f.Financials == nil {
		return result, nil
	}

	result.Income = quarterlyRecords(f.Financials.IncomeStatement)
	result.Balance = quarterlyRecords(f.Financials.BalanceSheet)
	result.CashFlow = quarterlyRecords(f.Financials.CashFlow)

	shares := make(map[time.Time]interface{}, len(result.Balance))
	for _, rec := range result.Balance {
		if v, ok := rec.Fields[sharesKey]; ok && v != nil {
			shares[rec.PeriodDate] = v
		}
	}
	for _, rec := range result.Income {
		if v, ok := rec.Fields[sharesKey]; ok && v != nil {
			continue
		}
		if v, ok := shares[rec.PeriodDate]; ok {
			rec.Fields[sharesKey] = v
		}
	}

	p.logger.Debug().
		Str("ticker", ticker).
		Int("income", len(result.Income)).
		Int("balance", len(result.Balance)).
		Int("cash_flow", len(result.CashFlow)).
		Msg("Quarterly statements fetched")

	return result, nil
}

// quarterlyRecords converts the date-keyed map into records, newest first
func quarterlyRecords(stmt *FinancialStatement) []models.StatementRecord {
	if stmt == nil {
		return nil
	}

	records := make([]models.StatementRecord, 0, len(stmt.Quarterly))
	for key, fields := range stmt.Quarterly {
		date, err := time.Parse(dateLayout, key)
		if err != nil {
			if s, ok := fields["date"].(string); ok {
				date, err = time.Parse(dateLayout, s)
			}
			if err != nil {
				continue
			}
		}
		if fields == nil {
			fields = map[string]interface{}{}
		}
		records = append(records, models.StatementRecord{PeriodDate: date, Fields: fields})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PeriodDate.After(records[j].PeriodDate)
	})
	return records
}
