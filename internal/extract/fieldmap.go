package extract

import (
	"fmt"
	"sort"
)

// Field is a logical statement field, independent of provider naming
type Field string

// Income statement fields
const (
	Revenue           Field = "revenue"
	CostOfRevenue     Field = "cost_of_revenue"
	GrossProfit       Field = "gross_profit"
	OperatingExpenses Field = "operating_expenses"
	OperatingIncome   Field = "operating_income"
	InterestExpense   Field = "interest_expense"
	IncomeBeforeTax   Field = "income_before_tax"
	IncomeTaxExpense  Field = "income_tax_expense"
	NetIncome         Field = "net_income"
	DilutedShares     Field = "shares_outstanding"
	BasicShares       Field = "basic_shares"
	BasicEPS          Field = "eps_basic"
	DilutedEPS        Field = "eps_diluted"
)

// Balance sheet fields
const (
	TotalAssets            Field = "total_assets"
	CurrentAssets          Field = "current_assets"
	CashAndEquivalents     Field = "cash_and_equivalents"
	AccountsReceivable     Field = "accounts_receivable"
	Inventory              Field = "inventory"
	NonCurrentAssets       Field = "non_current_assets"
	PropertyPlantEquipment Field = "property_plant_equipment"
	TotalLiabilities       Field = "total_liabilities"
	CurrentLiabilities     Field = "current_liabilities"
	AccountsPayable        Field = "accounts_payable"
	ShortTermDebt          Field = "short_term_debt"
	LongTermDebt           Field = "long_term_debt"
	TotalEquity            Field = "total_equity"
	RetainedEarnings       Field = "retained_earnings"
)

// Cash flow fields
const (
	OperatingCashFlow  Field = "operating_cash_flow"
	InvestingCashFlow  Field = "investing_cash_flow"
	FinancingCashFlow  Field = "financing_cash_flow"
	NetChangeInCash    Field = "net_change_in_cash"
	CapitalExpenditure Field = "capital_expenditure"
	FreeCashFlow       Field = "free_cash_flow"
	DividendsPaid      Field = "dividends_paid"
	StockRepurchases   Field = "stock_repurchases"
)

// Synonyms maps a logical field to its candidate record keys, in priority order
type Synonyms map[Field][]string

// FieldMap is one revision of the statement naming tables
type FieldMap struct {
	Version  string
	Income   Synonyms
	Balance  Synonyms
	CashFlow Synonyms
}

// DefaultVersion is the field map used when none is configured
const DefaultVersion = "v3"

// Lookup returns the field map registered under version
func Lookup(version string) (*FieldMap, error) {
	if version == "" {
		version = DefaultVersion
	}
	fm, ok := fieldMaps[version]
	if !ok {
		return nil, fmt.Errorf("unknown field map version %q (available: %v)", version, Versions())
	}
	return fm, nil
}

// Versions lists the registered field map versions
func Versions() []string {
	versions := make([]string, 0, len(fieldMaps))
	for v := range fieldMaps {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

var fieldMaps = map[string]*FieldMap{
	"v1": fieldMapV1,
	"v2": fieldMapV2,
	"v3": fieldMapV3,
}

// v1 knows one display name per field
var fieldMapV1 = &FieldMap{
	Version: "v1",
	Income: Synonyms{
		Revenue:           {"Total Revenue"},
		CostOfRevenue:     {"Cost Of Revenue"},
		GrossProfit:       {"Gross Profit"},
		OperatingExpenses: {"Operating Expense"},
		OperatingIncome:   {"Operating Income"},
		NetIncome:         {"Net Income"},
		DilutedShares:     {"Diluted Average Shares"},
	},
	Balance: Synonyms{
		TotalAssets:        {"Total Assets"},
		CurrentAssets:      {"Current Assets"},
		CashAndEquivalents: {"Cash And Cash Equivalents"},
		TotalLiabilities:   {"Total Liabilities Net Minority Interest"},
		CurrentLiabilities: {"Current Liabilities"},
		LongTermDebt:       {"Long Term Debt"},
		TotalEquity:        {"Total Equity Gross Minority Interest"},
	},
	CashFlow: Synonyms{
		OperatingCashFlow:  {"Operating Cash Flow"},
		InvestingCashFlow:  {"Investing Cash Flow"},
		FinancingCashFlow:  {"Financing Cash Flow"},
		CapitalExpenditure: {"Capital Expenditure"},
		FreeCashFlow:       {"Free Cash Flow"},
	},
}

// v2 adds the display-name synonyms seen across providers
var fieldMapV2 = &FieldMap{
	Version: "v2",
	Income: Synonyms{
		Revenue:           {"Total Revenue", "Revenue"},
		CostOfRevenue:     {"Cost Of Revenue", "Total Cost Of Revenue"},
		GrossProfit:       {"Gross Profit"},
		OperatingExpenses: {"Operating Expense", "Total Operating Expenses", "Operating Expenses"},
		OperatingIncome:   {"Operating Income", "EBIT"},
		InterestExpense:   {"Interest Expense", "Interest Expense Non Operating", "Net Interest Income"},
		IncomeBeforeTax:   {"Pretax Income", "Income Before Tax", "Earnings Before Tax"},
		IncomeTaxExpense:  {"Tax Provision", "Income Tax Expense", "Tax Effect Of Unusual Items"},
		NetIncome:         {"Net Income", "Net Income Common Stockholders"},
		DilutedShares:     {"Diluted Average Shares", "Average Diluted Shares Outstanding", "Diluted NI Availto Com Stockholders"},
		BasicShares:       {"Basic Average Shares", "Average Basic Shares Outstanding"},
		BasicEPS:          {"Basic EPS", "Earnings Per Share Basic"},
		DilutedEPS:        {"Diluted EPS", "Earnings Per Share Diluted"},
	},
	Balance: Synonyms{
		TotalAssets:            {"Total Assets", "TotalAssets"},
		CurrentAssets:          {"Current Assets", "TotalCurrentAssets"},
		CashAndEquivalents:     {"Cash And Cash Equivalents", "Cash Cash Equivalents And Short Term Investments", "CashAndCashEquivalents"},
		AccountsReceivable:     {"Accounts Receivable", "Receivables", "AccountsReceivable"},
		Inventory:              {"Inventory", "Inventories"},
		NonCurrentAssets:       {"Total Non Current Assets", "Non Current Assets", "TotalNonCurrentAssets"},
		PropertyPlantEquipment: {"Net PPE", "Property Plant Equipment Net", "Gross PPE"},
		TotalLiabilities:       {"Total Liabilities Net Minority Interest", "Total Liabilities", "TotalLiabilities"},
		CurrentLiabilities:     {"Current Liabilities", "TotalCurrentLiabilities"},
		AccountsPayable:        {"Accounts Payable", "Payables", "AccountsPayable"},
		ShortTermDebt:          {"Current Debt", "Short Term Debt", "Current Debt And Capital Lease Obligation"},
		LongTermDebt:           {"Long Term Debt", "Long Term Debt And Capital Lease Obligation", "LongTermDebt"},
		TotalEquity:            {"Total Equity Gross Minority Interest", "Stockholders Equity", "Total Equity", "TotalEquity"},
		RetainedEarnings:       {"Retained Earnings", "RetainedEarnings"},
	},
	CashFlow: Synonyms{
		OperatingCashFlow:  {"Operating Cash Flow", "Cash Flow From Operating Activities", "Total Cash From Operating Activities", "Net Cash From Operating Activities"},
		InvestingCashFlow:  {"Investing Cash Flow", "Cash Flow From Investing Activities", "Total Cash From Investing Activities", "Net Cash From Investing Activities"},
		FinancingCashFlow:  {"Financing Cash Flow", "Cash Flow From Financing Activities", "Total Cash From Financing Activities", "Net Cash From Financing Activities"},
		NetChangeInCash:    {"Changes In Cash", "Net Change In Cash", "Change In Cash And Cash Equivalents", "Net Change In Cash And Cash Equivalents"},
		CapitalExpenditure: {"Capital Expenditure", "Capital Expenditures", "Purchase Of PPE", "Purchases Of Property Plant And Equipment"},
		FreeCashFlow:       {"Free Cash Flow"},
		DividendsPaid:      {"Cash Dividends Paid", "Common Stock Dividend Paid", "Dividends Paid", "Payment Of Dividends"},
		StockRepurchases:   {"Repurchase Of Capital Stock", "Common Stock Repurchased", "Stock Repurchased", "Repurchase Of Common Stock"},
	},
}

// v3 is v2 followed by the camelCase keys of the EODHD fundamentals feed
var fieldMapV3 = fieldMapV2.extend("v3", eodhdNames)

var eodhdNames = FieldMap{
	Income: Synonyms{
		Revenue:           {"totalRevenue"},
		CostOfRevenue:     {"costOfRevenue"},
		GrossProfit:       {"grossProfit"},
		OperatingExpenses: {"totalOperatingExpenses"},
		OperatingIncome:   {"operatingIncome", "ebit"},
		InterestExpense:   {"interestExpense"},
		IncomeBeforeTax:   {"incomeBeforeTax"},
		IncomeTaxExpense:  {"incomeTaxExpense"},
		NetIncome:         {"netIncome", "netIncomeApplicableToCommonShares"},
		DilutedShares:     {"commonStockSharesOutstanding"},
	},
	Balance: Synonyms{
		TotalAssets:            {"totalAssets"},
		CurrentAssets:          {"totalCurrentAssets"},
		CashAndEquivalents:     {"cashAndEquivalents", "cash", "cashAndShortTermInvestments"},
		AccountsReceivable:     {"netReceivables"},
		Inventory:              {"inventory"},
		NonCurrentAssets:       {"nonCurrentAssetsTotal"},
		PropertyPlantEquipment: {"propertyPlantAndEquipmentNet", "propertyPlantEquipment"},
		TotalLiabilities:       {"totalLiab"},
		CurrentLiabilities:     {"totalCurrentLiabilities"},
		AccountsPayable:        {"accountsPayable"},
		ShortTermDebt:          {"shortTermDebt"},
		LongTermDebt:           {"longTermDebt"},
		TotalEquity:            {"totalStockholderEquity"},
		RetainedEarnings:       {"retainedEarnings"},
	},
	CashFlow: Synonyms{
		OperatingCashFlow:  {"totalCashFromOperatingActivities"},
		InvestingCashFlow:  {"totalCashflowsFromInvestingActivities"},
		FinancingCashFlow:  {"totalCashFromFinancingActivities"},
		NetChangeInCash:    {"changeInCash"},
		CapitalExpenditure: {"capitalExpenditures"},
		FreeCashFlow:       {"freeCashFlow"},
		DividendsPaid:      {"dividendsPaid"},
		StockRepurchases:   {"salePurchaseOfStock"},
	},
}

// extend copies m and appends the extra keys after the existing synonyms
func (m *FieldMap) extend(version string, extra FieldMap) *FieldMap {
	return &FieldMap{
		Version:  version,
		Income:   mergeSynonyms(m.Income, extra.Income),
		Balance:  mergeSynonyms(m.Balance, extra.Balance),
		CashFlow: mergeSynonyms(m.CashFlow, extra.CashFlow),
	}
}

func mergeSynonyms(base, extra Synonyms) Synonyms {
	merged := make(Synonyms, len(base))
	for field, keys := range base {
		merged[field] = append([]string(nil), keys...)
	}
	for field, keys := range extra {
		merged[field] = append(merged[field], keys...)
	}
	return merged
}
