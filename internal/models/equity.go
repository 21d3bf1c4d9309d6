package models

import "time"

// Sector groups companies by industry
type Sector struct {
	ID   int64  `json:"sector_id" db:"sector_id"`
	Name string `json:"sector_name" db:"sector_name" validate:"required,max=100"`
}

// Company is a tracked listed company, unique by ticker
type Company struct {
	ID          int64    `json:"company_id" db:"company_id"`
	Ticker      string   `json:"ticker_symbol" db:"ticker_symbol" validate:"required,ticker"`
	Name        string   `json:"company_name" db:"company_name" validate:"required,min=2,max=200"`
	SectorID    int64    `json:"sector_id" db:"sector_id"`
	SectorName  string   `json:"sector_name,omitempty" db:"sector_name"`
	MarketCap   *float64 `json:"market_cap,omitempty" db:"market_cap" validate:"omitempty,gte=0"`
	Country     string   `json:"country" db:"country"`
	Exchange    string   `json:"exchange" db:"exchange"`
	Currency    string   `json:"currency" db:"currency"`
	Description string   `json:"description" db:"description"`
}

// CompanyProfile is the provider's view of a company before it is stored
type CompanyProfile struct {
	Ticker      string
	Name        string
	Sector      string
	MarketCap   *float64
	Country     string
	Exchange    string
	Currency    string
	Description string

	// Provider-reported ratios, used when a metric cannot be derived from statements.
	// Ratios are fractions (0.25 = 25%) except DebtToEquity which is a percentage.
	TrailingPE      *float64
	PriceToBook     *float64
	PriceToSales    *float64
	ReturnOnEquity  *float64
	ReturnOnAssets  *float64
	DebtToEquity    *float64
	CurrentRatio    *float64
	QuickRatio      *float64
	GrossMargin     *float64
	OperatingMargin *float64
	ProfitMargin    *float64
}

// PriceBar is one daily OHLCV observation
type PriceBar struct {
	CompanyID     int64     `json:"company_id" db:"company_id"`
	TradeDate     time.Time `json:"trade_date" db:"trade_date" validate:"required"`
	Open          *float64  `json:"open_price" db:"open_price" validate:"omitempty,gt=0,lte=1000000"`
	High          *float64  `json:"high_price" db:"high_price" validate:"omitempty,gt=0,lte=1000000"`
	Low           *float64  `json:"low_price" db:"low_price" validate:"omitempty,gt=0,lte=1000000"`
	Close         float64   `json:"close_price" db:"close_price" validate:"gt=0,lte=1000000"`
	AdjustedClose *float64  `json:"adjusted_close,omitempty" db:"adjusted_close" validate:"omitempty,gt=0,lte=1000000"`
	Volume        int64     `json:"volume" db:"volume" validate:"gte=0,lte=1000000000000"`
}

// StatementType names the detail table a statement header belongs to
type StatementType string

const (
	StatementIncome   StatementType = "IncomeStatement"
	StatementBalance  StatementType = "BalanceSheet"
	StatementCashFlow StatementType = "CashFlowStatement"
)

// StatementHeader identifies one fiscal-quarter statement of a company
type StatementHeader struct {
	ID            int64         `db:"statement_id"`
	CompanyID     int64         `db:"company_id"`
	FiscalYear    int           `db:"fiscal_year" validate:"gte=1900"`
	FiscalQuarter string        `db:"fiscal_quarter" validate:"oneof=Q1 Q2 Q3 Q4 FY"`
	FilingDate    time.Time     `db:"filing_date"`
	Type          StatementType `db:"statement_type"`
}

// IncomeStatement holds the mapped income-statement fields of one quarter
type IncomeStatement struct {
	StatementID       int64    `db:"statement_id"`
	Revenue           *float64 `db:"revenue"`
	CostOfRevenue     *float64 `db:"cost_of_revenue"`
	GrossProfit       *float64 `db:"gross_profit"`
	OperatingExpenses *float64 `db:"operating_expenses"`
	OperatingIncome   *float64 `db:"operating_income"`
	InterestExpense   *float64 `db:"interest_expense"`
	IncomeBeforeTax   *float64 `db:"income_before_tax"`
	IncomeTaxExpense  *float64 `db:"income_tax_expense"`
	NetIncome         *float64 `db:"net_income"`
	EPSBasic          *float64 `db:"eps_basic"`
	EPSDiluted        *float64 `db:"eps_diluted"`
	SharesOutstanding *float64 `db:"shares_outstanding"`
}

// BalanceSheet holds the mapped balance-sheet fields of one quarter
type BalanceSheet struct {
	StatementID            int64    `db:"statement_id"`
	TotalAssets            *float64 `db:"total_assets"`
	CurrentAssets          *float64 `db:"current_assets"`
	CashAndEquivalents     *float64 `db:"cash_and_equivalents"`
	AccountsReceivable     *float64 `db:"accounts_receivable"`
	Inventory              *float64 `db:"inventory"`
	NonCurrentAssets       *float64 `db:"non_current_assets"`
	PropertyPlantEquipment *float64 `db:"property_plant_equipment"`
	TotalLiabilities       *float64 `db:"total_liabilities"`
	CurrentLiabilities     *float64 `db:"current_liabilities"`
	AccountsPayable        *float64 `db:"accounts_payable"`
	ShortTermDebt          *float64 `db:"short_term_debt"`
	LongTermDebt           *float64 `db:"long_term_debt"`
	TotalEquity            *float64 `db:"total_equity"`
	RetainedEarnings       *float64 `db:"retained_earnings"`
}

// CashFlowStatement holds the mapped cash-flow fields of one quarter
type CashFlowStatement struct {
	StatementID        int64    `db:"statement_id"`
	OperatingCashFlow  *float64 `db:"operating_cash_flow"`
	InvestingCashFlow  *float64 `db:"investing_cash_flow"`
	FinancingCashFlow  *float64 `db:"financing_cash_flow"`
	NetChangeInCash    *float64 `db:"net_change_in_cash"`
	CapitalExpenditure *float64 `db:"capital_expenditure"`
	FreeCashFlow       *float64 `db:"free_cash_flow"`
	DividendsPaid      *float64 `db:"dividends_paid"`
	StockRepurchases   *float64 `db:"stock_repurchases"`
}

// StatementRecord is one provider period: a sparse map of field name to raw value
type StatementRecord struct {
	PeriodDate time.Time
	Fields     map[string]interface{}
}

// QuarterlyStatements are the provider's quarterly statements, newest period first
type QuarterlyStatements struct {
	Income   []StatementRecord
	Balance  []StatementRecord
	CashFlow []StatementRecord
}

// ValuationMetrics is a dated snapshot of valuation and health ratios
type ValuationMetrics struct {
	CompanyID       int64     `db:"company_id"`
	CalculationDate time.Time `db:"calculation_date"`
	MarketCap       *float64  `db:"market_cap"`
	PERatio         *float64  `db:"pe_ratio" validate:"omitempty,gte=-100,lte=10000"`
	PBRatio         *float64  `db:"pb_ratio" validate:"omitempty,gte=0,lte=1000"`
	PSRatio         *float64  `db:"ps_ratio"`
	ROE             *float64  `db:"roe"`
	ROA             *float64  `db:"roa"`
	DebtToEquity    *float64  `db:"debt_to_equity"`
	CurrentRatio    *float64  `db:"current_ratio"`
	QuickRatio      *float64  `db:"quick_ratio"`
	GrossMargin     *float64  `db:"gross_margin"`
	OperatingMargin *float64  `db:"operating_margin"`
	NetMargin       *float64  `db:"net_margin"`
}

// Count returns how many metrics carry a value
func (m *ValuationMetrics) Count() int {
	n := 0
	for _, v := range []*float64{m.PERatio, m.PBRatio, m.PSRatio, m.ROE, m.ROA, m.DebtToEquity,
		m.CurrentRatio, m.QuickRatio, m.GrossMargin, m.OperatingMargin, m.NetMargin} {
		if v != nil {
			n++
		}
	}
	return n
}

// EtlRun records one pipeline execution
type EtlRun struct {
	ID         string     `db:"run_id"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Mode       string     `db:"mode"`
	Processed  int        `db:"processed"`
	Failed     int        `db:"failed"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
