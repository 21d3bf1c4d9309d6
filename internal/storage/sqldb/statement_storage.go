package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// StatementStorage implements interfaces.StatementStorage
type StatementStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewStatementStorage creates a new StatementStorage instance
func NewStatementStorage(db *DB, logger arbor.ILogger) interfaces.StatementStorage {
	return &StatementStorage{db: db, logger: logger}
}

var (
	incomeColumns = []string{
		"revenue", "cost_of_revenue", "gross_profit", "operating_expenses",
		"operating_income", "interest_expense", "income_before_tax",
		"income_tax_expense", "net_income", "eps_basic", "eps_diluted",
		"shares_outstanding",
	}
	balanceColumns = []string{
		"total_assets", "current_assets", "cash_and_equivalents",
		"accounts_receivable", "inventory", "non_current_assets",
		"property_plant_equipment", "total_liabilities", "current_liabilities",
		"accounts_payable", "short_term_debt", "long_term_debt", "total_equity",
		"retained_earnings",
	}
	cashFlowColumns = []string{
		"operating_cash_flow", "investing_cash_flow", "financing_cash_flow",
		"net_change_in_cash", "capital_expenditure", "free_cash_flow",
		"dividends_paid", "stock_repurchases",
	}
)

// UpsertStatementHeader inserts or refreshes the header and returns its id
func (s *StatementStorage) UpsertStatementHeader(ctx context.Context, header *models.StatementHeader) (int64, error) {
	query := s.db.DB().Rebind(`
		INSERT INTO financial_statements (
			company_id, fiscal_year, fiscal_quarter, filing_date, statement_type
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (company_id, fiscal_year, fiscal_quarter, statement_type) DO UPDATE SET
			filing_date = excluded.filing_date
		RETURNING statement_id`)

	var id int64
	err := s.db.DB().QueryRowxContext(ctx, query,
		header.CompanyID, header.FiscalYear, header.FiscalQuarter,
		dateValue(header.FilingDate), string(header.Type),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert %s header %d %s: %w",
			header.Type, header.FiscalYear, header.FiscalQuarter, err)
	}

	header.ID = id
	return id, nil
}

func (s *StatementStorage) UpsertIncomeStatement(ctx context.Context, stmt *models.IncomeStatement) error {
	return s.upsertDetail(ctx, "income_statements", incomeColumns, stmt.StatementID, []*float64{
		rounded(stmt.Revenue, 2), rounded(stmt.CostOfRevenue, 2), rounded(stmt.GrossProfit, 2),
		rounded(stmt.OperatingExpenses, 2), rounded(stmt.OperatingIncome, 2),
		rounded(stmt.InterestExpense, 2), rounded(stmt.IncomeBeforeTax, 2),
		rounded(stmt.IncomeTaxExpense, 2), rounded(stmt.NetIncome, 2),
		rounded(stmt.EPSBasic, 4), rounded(stmt.EPSDiluted, 4),
		rounded(stmt.SharesOutstanding, 0),
	})
}

func (s *StatementStorage) UpsertBalanceSheet(ctx context.Context, stmt *models.BalanceSheet) error {
	return s.upsertDetail(ctx, "balance_sheets", balanceColumns, stmt.StatementID, roundAll(2,
		stmt.TotalAssets, stmt.CurrentAssets, stmt.CashAndEquivalents,
		stmt.AccountsReceivable, stmt.Inventory, stmt.NonCurrentAssets,
		stmt.PropertyPlantEquipment, stmt.TotalLiabilities, stmt.CurrentLiabilities,
		stmt.AccountsPayable, stmt.ShortTermDebt, stmt.LongTermDebt, stmt.TotalEquity,
		stmt.RetainedEarnings,
	))
}

func (s *StatementStorage) UpsertCashFlowStatement(ctx context.Context, stmt *models.CashFlowStatement) error {
	return s.upsertDetail(ctx, "cash_flow_statements", cashFlowColumns, stmt.StatementID, roundAll(2,
		stmt.OperatingCashFlow, stmt.InvestingCashFlow, stmt.FinancingCashFlow,
		stmt.NetChangeInCash, stmt.CapitalExpenditure, stmt.FreeCashFlow,
		stmt.DividendsPaid, stmt.StockRepurchases,
	))
}

func roundAll(places int32, values ...*float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = rounded(v, places)
	}
	return out
}

// upsertDetail writes one detail row keyed by statement_id
func (s *StatementStorage) upsertDetail(ctx context.Context, table string, columns []string, statementID int64, values []*float64) error {
	if statementID == 0 {
		return fmt.Errorf("%w: %s requires a statement id", validation.ErrValidation, table)
	}

	placeholders := make([]string, len(columns)+1)
	updates := make([]string, len(columns))
	args := make([]interface{}, 0, len(columns)+1)

	placeholders[0] = "?"
	args = append(args, statementID)
	for i, col := range columns {
		placeholders[i+1] = "?"
		updates[i] = fmt.Sprintf("%s = excluded.%s", col, col)
		args = append(args, values[i])
	}

	query := fmt.Sprintf(`INSERT INTO %s (statement_id, %s) VALUES (%s)
		ON CONFLICT (statement_id) DO UPDATE SET %s`,
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	if _, err := s.db.DB().ExecContext(ctx, s.db.DB().Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to upsert %s for statement %d: %w", table, statementID, err)
	}
	return nil
}

// latestDetailQuery selects the detail row of the most recent fiscal period
func latestDetailQuery(table string, columns []string) string {
	return fmt.Sprintf(`
		SELECT d.statement_id, d.%s
		FROM %s d
		JOIN financial_statements f ON f.statement_id = d.statement_id
		WHERE f.company_id = ? AND f.statement_type = ?
		ORDER BY f.fiscal_year DESC, f.fiscal_quarter DESC
		LIMIT 1`, strings.Join(columns, ", d."), table)
}

func (s *StatementStorage) GetLatestIncomeStatement(ctx context.Context, companyID int64) (*models.IncomeStatement, error) {
	var stmt models.IncomeStatement
	query := s.db.DB().Rebind(latestDetailQuery("income_statements", incomeColumns))
	err := s.db.DB().GetContext(ctx, &stmt, query, companyID, string(models.StatementIncome))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, validation.NotFound("income statement", companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest income statement: %w", err)
	}
	return &stmt, nil
}

func (s *StatementStorage) GetLatestBalanceSheet(ctx context.Context, companyID int64) (*models.BalanceSheet, error) {
	var stmt models.BalanceSheet
	query := s.db.DB().Rebind(latestDetailQuery("balance_sheets", balanceColumns))
	err := s.db.DB().GetContext(ctx, &stmt, query, companyID, string(models.StatementBalance))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, validation.NotFound("balance sheet", companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest balance sheet: %w", err)
	}
	return &stmt, nil
}

// GetEPSHistory returns diluted EPS of the latest quarters, newest first
func (s *StatementStorage) GetEPSHistory(ctx context.Context, companyID int64, limit int) ([]*float64, error) {
	return s.history(ctx, "eps_diluted", "", companyID, limit)
}

// GetRevenueHistory returns quarterly revenue, newest first, skipping quarters without revenue
func (s *StatementStorage) GetRevenueHistory(ctx context.Context, companyID int64, limit int) ([]*float64, error) {
	return s.history(ctx, "revenue", "AND i.revenue IS NOT NULL", companyID, limit)
}

func (s *StatementStorage) history(ctx context.Context, column, filter string, companyID int64, limit int) ([]*float64, error) {
	query := fmt.Sprintf(`
		SELECT i.%s
		FROM income_statements i
		JOIN financial_statements f ON f.statement_id = i.statement_id
		WHERE f.company_id = ? AND f.statement_type = ? %s
		ORDER BY f.fiscal_year DESC, f.fiscal_quarter DESC
		LIMIT ?`, column, filter)

	var values []sql.NullFloat64
	err := s.db.DB().SelectContext(ctx, &values, s.db.DB().Rebind(query),
		companyID, string(models.StatementIncome), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s history: %w", column, err)
	}

	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = nullFloat(v)
	}
	return out, nil
}
