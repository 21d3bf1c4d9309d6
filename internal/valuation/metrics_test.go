package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/equitydb/internal/models"
)

func f(v float64) *float64 { return models.Float(v) }

func TestCompute_FromStatements(t *testing.T) {
	date := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	m := Compute(Inputs{
		CompanyID: 3,
		Price:     50,
		PriceDate: date,
		Income: &models.IncomeStatement{
			Revenue:           f(1000),
			NetIncome:         f(100),
			SharesOutstanding: f(20),
		},
		Balance: &models.BalanceSheet{
			TotalAssets:        f(2000),
			CurrentAssets:      f(600),
			CurrentLiabilities: f(300),
			Inventory:          f(150),
			TotalEquity:        f(500),
			LongTermDebt:       f(200),
		},
	})

	assert.Equal(t, int64(3), m.CompanyID)
	assert.Equal(t, date, m.CalculationDate)

	require.NotNil(t, m.MarketCap)
	assert.Equal(t, 1000.0, *m.MarketCap)
	require.NotNil(t, m.PERatio)
	assert.InDelta(t, 10.0, *m.PERatio, 1e-9) // eps 5
	require.NotNil(t, m.PBRatio)
	assert.InDelta(t, 2.0, *m.PBRatio, 1e-9) // bvps 25
	require.NotNil(t, m.PSRatio)
	assert.InDelta(t, 1.0, *m.PSRatio, 1e-9) // sps 50
	require.NotNil(t, m.ROE)
	assert.InDelta(t, 20.0, *m.ROE, 1e-9)
	require.NotNil(t, m.ROA)
	assert.InDelta(t, 5.0, *m.ROA, 1e-9)
	require.NotNil(t, m.DebtToEquity)
	assert.InDelta(t, 0.4, *m.DebtToEquity, 1e-9)
	require.NotNil(t, m.CurrentRatio)
	assert.InDelta(t, 2.0, *m.CurrentRatio, 1e-9)
	require.NotNil(t, m.QuickRatio)
	assert.InDelta(t, 1.5, *m.QuickRatio, 1e-9)
	require.NotNil(t, m.NetMargin)
	assert.InDelta(t, 10.0, *m.NetMargin, 1e-9)

	// margins only come from the provider
	assert.Nil(t, m.GrossMargin)
	assert.Nil(t, m.OperatingMargin)
	assert.Equal(t, 9, m.Count())
}

func TestCompute_ProviderFallbacks(t *testing.T) {
	m := Compute(Inputs{
		Price:   120,
		Income:  &models.IncomeStatement{NetIncome: f(-10), SharesOutstanding: f(5)},
		Balance: &models.BalanceSheet{TotalEquity: f(-40)},
		Profile: &models.CompanyProfile{
			TrailingPE:      f(31.5),
			PriceToBook:     f(45),
			PriceToSales:    f(7.5),
			ReturnOnEquity:  f(1.47),
			ReturnOnAssets:  f(0.22),
			DebtToEquity:    f(151.9),
			CurrentRatio:    f(0.87),
			QuickRatio:      f(0.83),
			GrossMargin:     f(0.46),
			OperatingMargin: f(0.31),
			ProfitMargin:    f(0.24),
		},
	})

	// negative EPS and book value fall back to the provider
	assert.InDelta(t, 31.5, *m.PERatio, 1e-9)
	assert.InDelta(t, 45.0, *m.PBRatio, 1e-9)
	assert.InDelta(t, 7.5, *m.PSRatio, 1e-9)
	assert.InDelta(t, 147.0, *m.ROE, 1e-9)
	assert.InDelta(t, 22.0, *m.ROA, 1e-9)
	assert.InDelta(t, 1.519, *m.DebtToEquity, 1e-9)
	assert.InDelta(t, 0.87, *m.CurrentRatio, 1e-9)
	assert.InDelta(t, 0.83, *m.QuickRatio, 1e-9)
	assert.InDelta(t, 46.0, *m.GrossMargin, 1e-9)
	assert.InDelta(t, 31.0, *m.OperatingMargin, 1e-9)
	assert.InDelta(t, 24.0, *m.NetMargin, 1e-9)
	assert.InDelta(t, 600.0, *m.MarketCap, 1e-9)
}

func TestCompute_QuickRatioUsesCashWithoutInventory(t *testing.T) {
	m := Compute(Inputs{
		Price: 10,
		Balance: &models.BalanceSheet{
			CurrentAssets:      f(500),
			CurrentLiabilities: f(250),
			CashAndEquivalents: f(100),
		},
	})

	require.NotNil(t, m.QuickRatio)
	assert.InDelta(t, 0.4, *m.QuickRatio, 1e-9)
}

func TestCompute_NoDebtLeavesRatioEmpty(t *testing.T) {
	m := Compute(Inputs{
		Price:   10,
		Balance: &models.BalanceSheet{TotalEquity: f(100)},
	})
	assert.Nil(t, m.DebtToEquity)
}

func TestCompute_NoData(t *testing.T) {
	m := Compute(Inputs{Price: 10})
	assert.Equal(t, 0, m.Count())
	assert.Nil(t, m.MarketCap)
}
