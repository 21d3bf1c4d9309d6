package eodhd

import "time"

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        float64   `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// FundamentalsResponse holds the parts of the fundamentals feed the pipeline reads.
type FundamentalsResponse struct {
	General     *GeneralInfo `json:"General"`
	Highlights  *Highlights  `json:"Highlights"`
	Valuation   *Valuation   `json:"Valuation"`
	SharesStats *SharesStats `json:"SharesStats"`
	Financials  *Financials  `json:"Financials"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code         string `json:"Code"`
	Type         string `json:"Type"`
	Name         string `json:"Name"`
	Exchange     string `json:"Exchange"`
	CurrencyCode string `json:"CurrencyCode"`
	CountryName  string `json:"CountryName"`
	Sector       string `json:"Sector"`
	GicSector    string `json:"GicSector"`
	Industry     string `json:"Industry"`
	Description  string `json:"Description"`
}

// Highlights contains key financial highlights. Values are null when not reported.
type Highlights struct {
	MarketCapitalization *float64 `json:"MarketCapitalization"`
	PERatio              *float64 `json:"PERatio"`
	ProfitMargin         *float64 `json:"ProfitMargin"`
	OperatingMarginTTM   *float64 `json:"OperatingMarginTTM"`
	ReturnOnAssetsTTM    *float64 `json:"ReturnOnAssetsTTM"`
	ReturnOnEquityTTM    *float64 `json:"ReturnOnEquityTTM"`
	RevenueTTM           *float64 `json:"RevenueTTM"`
	GrossProfitTTM       *float64 `json:"GrossProfitTTM"`
	DilutedEpsTTM        *float64 `json:"DilutedEpsTTM"`
}

// Valuation contains valuation metrics.
type Valuation struct {
	TrailingPE    *float64 `json:"TrailingPE"`
	ForwardPE     *float64 `json:"ForwardPE"`
	PriceSalesTTM *float64 `json:"PriceSalesTTM"`
	PriceBookMRQ  *float64 `json:"PriceBookMRQ"`
}

// SharesStats contains share counts.
type SharesStats struct {
	SharesOutstanding *float64 `json:"SharesOutstanding"`
	SharesFloat       *float64 `json:"SharesFloat"`
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet    *FinancialStatement `json:"Balance_Sheet"`
	CashFlow        *FinancialStatement `json:"Cash_Flow"`
	IncomeStatement *FinancialStatement `json:"Income_Statement"`
}

// FinancialStatement represents a financial statement with quarterly and yearly data,
// each a sparse map of period date to raw field values.
type FinancialStatement struct {
	Currency  string                            `json:"currency"`
	Quarterly map[string]map[string]interface{} `json:"quarterly"`
	Yearly    map[string]map[string]interface{} `json:"yearly"`
}
