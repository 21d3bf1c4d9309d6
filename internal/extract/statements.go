package extract

import (
	"fmt"
	"time"

	"github.com/ternarybob/equitydb/internal/models"
)

// FiscalPeriod derives the fiscal year and calendar quarter of a period end date
func FiscalPeriod(periodDate time.Time) (int, string) {
	quarter := (int(periodDate.Month())-1)/3 + 1
	return periodDate.Year(), fmt.Sprintf("Q%d", quarter)
}

// get resolves one logical field through the synonym table
func (s Synonyms) get(record Record, field Field) *float64 {
	return FirstPtr(record, s[field]...)
}

// MapIncome maps a sparse income-statement record. EPS is computed from net
// income and share counts when both are usable, falling back to the
// reported per-share figures.
func (m *FieldMap) MapIncome(record Record) models.IncomeStatement {
	s := m.Income
	stmt := models.IncomeStatement{
		Revenue:           s.get(record, Revenue),
		CostOfRevenue:     s.get(record, CostOfRevenue),
		GrossProfit:       s.get(record, GrossProfit),
		OperatingExpenses: s.get(record, OperatingExpenses),
		OperatingIncome:   s.get(record, OperatingIncome),
		InterestExpense:   s.get(record, InterestExpense),
		IncomeBeforeTax:   s.get(record, IncomeBeforeTax),
		IncomeTaxExpense:  s.get(record, IncomeTaxExpense),
		NetIncome:         s.get(record, NetIncome),
		SharesOutstanding: s.get(record, DilutedShares),
	}

	basicShares := s.get(record, BasicShares)
	if basicShares == nil {
		basicShares = stmt.SharesOutstanding
	}

	if stmt.NetIncome != nil && basicShares != nil && *basicShares > 0 {
		stmt.EPSBasic = models.Float(*stmt.NetIncome / *basicShares)
	} else {
		stmt.EPSBasic = s.get(record, BasicEPS)
	}

	if stmt.NetIncome != nil && stmt.SharesOutstanding != nil && *stmt.SharesOutstanding > 0 {
		stmt.EPSDiluted = models.Float(*stmt.NetIncome / *stmt.SharesOutstanding)
	} else if eps := s.get(record, DilutedEPS); eps != nil {
		stmt.EPSDiluted = eps
	} else {
		stmt.EPSDiluted = stmt.EPSBasic
	}

	return stmt
}

// MapBalance maps a sparse balance-sheet record
func (m *FieldMap) MapBalance(record Record) models.BalanceSheet {
	s := m.Balance
	return models.BalanceSheet{
		TotalAssets:            s.get(record, TotalAssets),
		CurrentAssets:          s.get(record, CurrentAssets),
		CashAndEquivalents:     s.get(record, CashAndEquivalents),
		AccountsReceivable:     s.get(record, AccountsReceivable),
		Inventory:              s.get(record, Inventory),
		NonCurrentAssets:       s.get(record, NonCurrentAssets),
		PropertyPlantEquipment: s.get(record, PropertyPlantEquipment),
		TotalLiabilities:       s.get(record, TotalLiabilities),
		CurrentLiabilities:     s.get(record, CurrentLiabilities),
		AccountsPayable:        s.get(record, AccountsPayable),
		ShortTermDebt:          s.get(record, ShortTermDebt),
		LongTermDebt:           s.get(record, LongTermDebt),
		TotalEquity:            s.get(record, TotalEquity),
		RetainedEarnings:       s.get(record, RetainedEarnings),
	}
}

// MapCashFlow maps a sparse cash-flow record. Free cash flow falls back to
// operating cash flow plus capital expenditure (reported as a negative).
func (m *FieldMap) MapCashFlow(record Record) models.CashFlowStatement {
	s := m.CashFlow
	stmt := models.CashFlowStatement{
		OperatingCashFlow:  s.get(record, OperatingCashFlow),
		InvestingCashFlow:  s.get(record, InvestingCashFlow),
		FinancingCashFlow:  s.get(record, FinancingCashFlow),
		NetChangeInCash:    s.get(record, NetChangeInCash),
		CapitalExpenditure: s.get(record, CapitalExpenditure),
		FreeCashFlow:       s.get(record, FreeCashFlow),
		DividendsPaid:      s.get(record, DividendsPaid),
		StockRepurchases:   s.get(record, StockRepurchases),
	}

	if stmt.FreeCashFlow == nil && stmt.OperatingCashFlow != nil && stmt.CapitalExpenditure != nil {
		stmt.FreeCashFlow = models.Float(*stmt.OperatingCashFlow + *stmt.CapitalExpenditure)
	}

	return stmt
}
