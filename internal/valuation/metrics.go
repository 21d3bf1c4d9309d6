// Package valuation derives valuation and balance-sheet health ratios from
// the latest close and the latest stored statements, falling back to the
// provider's own figures where a ratio cannot be derived.
package valuation

import (
	"time"

	"github.com/ternarybob/equitydb/internal/models"
)

// Inputs are the figures one metrics snapshot is computed from
type Inputs struct {
	CompanyID int64
	Price     float64
	PriceDate time.Time
	Income    *models.IncomeStatement
	Balance   *models.BalanceSheet
	Profile   *models.CompanyProfile // provider fallbacks, may be nil
}

// Compute builds the snapshot dated at the price date. Percent metrics
// (ROE, ROA, margins) are stored as percentages; the others as ratios.
func Compute(in Inputs) models.ValuationMetrics {
	income := in.Income
	if income == nil {
		income = &models.IncomeStatement{}
	}
	balance := in.Balance
	if balance == nil {
		balance = &models.BalanceSheet{}
	}
	profile := in.Profile
	if profile == nil {
		profile = &models.CompanyProfile{}
	}

	price := in.Price
	revenue := value(income.Revenue)
	netIncome := value(income.NetIncome)
	shares := value(income.SharesOutstanding)
	totalAssets := value(balance.TotalAssets)
	currentAssets := value(balance.CurrentAssets)
	currentLiabilities := value(balance.CurrentLiabilities)
	cash := value(balance.CashAndEquivalents)
	equity := value(balance.TotalEquity)
	totalDebt := value(balance.LongTermDebt) + value(balance.ShortTermDebt)

	m := models.ValuationMetrics{
		CompanyID:       in.CompanyID,
		CalculationDate: in.PriceDate,
	}

	if shares != 0 {
		m.MarketCap = models.Float(price * shares)
	}

	if netIncome != 0 && shares > 0 {
		if eps := netIncome / shares; eps > 0 {
			m.PERatio = models.Float(price / eps)
		}
	}
	m.PERatio = fallback(m.PERatio, profile.TrailingPE, 1)

	if equity != 0 && shares > 0 {
		if bvps := equity / shares; bvps > 0 {
			m.PBRatio = models.Float(price / bvps)
		}
	}
	m.PBRatio = fallback(m.PBRatio, profile.PriceToBook, 1)

	if revenue != 0 && shares > 0 {
		if sps := revenue / shares; sps > 0 {
			m.PSRatio = models.Float(price / sps)
		}
	}
	m.PSRatio = fallback(m.PSRatio, profile.PriceToSales, 1)

	if netIncome != 0 && equity > 0 {
		m.ROE = models.Float(netIncome / equity * 100)
	}
	m.ROE = fallback(m.ROE, profile.ReturnOnEquity, 100)

	if netIncome != 0 && totalAssets > 0 {
		m.ROA = models.Float(netIncome / totalAssets * 100)
	}
	m.ROA = fallback(m.ROA, profile.ReturnOnAssets, 100)

	if totalDebt != 0 && equity > 0 {
		m.DebtToEquity = models.Float(totalDebt / equity)
	}
	// provider reports debt-to-equity as a percentage
	m.DebtToEquity = fallback(m.DebtToEquity, profile.DebtToEquity, 0.01)

	if currentAssets != 0 && currentLiabilities > 0 {
		m.CurrentRatio = models.Float(currentAssets / currentLiabilities)
	}
	m.CurrentRatio = fallback(m.CurrentRatio, profile.CurrentRatio, 1)

	switch {
	case currentAssets != 0 && balance.Inventory != nil && currentLiabilities > 0:
		m.QuickRatio = models.Float((currentAssets - *balance.Inventory) / currentLiabilities)
	case cash != 0 && currentLiabilities > 0:
		m.QuickRatio = models.Float(cash / currentLiabilities)
	}
	m.QuickRatio = fallback(m.QuickRatio, profile.QuickRatio, 1)

	m.GrossMargin = fallback(nil, profile.GrossMargin, 100)
	m.OperatingMargin = fallback(nil, profile.OperatingMargin, 100)

	if netIncome != 0 && revenue > 0 {
		m.NetMargin = models.Float(netIncome / revenue * 100)
	}
	m.NetMargin = fallback(m.NetMargin, profile.ProfitMargin, 100)

	return m
}

// value reads an optional figure, treating absent as zero
func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// fallback keeps a derived metric, otherwise scales the provider figure.
// A zero provider figure counts as unreported.
func fallback(derived, provided *float64, scale float64) *float64 {
	if derived != nil {
		return derived
	}
	if provided == nil || *provided == 0 {
		return nil
	}
	return models.Float(*provided * scale)
}
