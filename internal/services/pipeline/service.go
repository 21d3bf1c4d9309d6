// Package pipeline is the sequential ETL: for each company of the universe
// it loads the profile, prices and quarterly statements from the market-data
// provider, derives valuation metrics and writes forecasts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/extract"
	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/services/forecasts"
	"github.com/ternarybob/equitydb/internal/validation"
	"github.com/ternarybob/equitydb/internal/valuation"
)

// Run modes recorded on etl_runs
const (
	ModeFull     = "full"
	ModePeriodic = "periodic"
	ModeForecast = "forecast"
)

const unknownSector = "Unknown"

// Options adjust a single run
type Options struct {
	Periodic bool
}

// Service runs the ETL pipeline
type Service struct {
	provider  interfaces.MarketDataProvider
	storage   interfaces.StorageManager
	forecasts *forecasts.Service
	validator *validation.Validator
	fieldMap  *extract.FieldMap
	config    common.PipelineConfig
	lookback  time.Duration
	sleep     time.Duration
	logger    arbor.ILogger
	now       func() time.Time
}

// NewService creates the pipeline. The field map version and durations come
// from config; an unknown field map version is an error.
func NewService(
	provider interfaces.MarketDataProvider,
	storage interfaces.StorageManager,
	forecastService *forecasts.Service,
	validator *validation.Validator,
	config *common.Config,
	logger arbor.ILogger,
) (*Service, error) {
	fieldMap, err := extract.Lookup(config.Pipeline.FieldMapVersion)
	if err != nil {
		return nil, err
	}

	return &Service{
		provider:  provider,
		storage:   storage,
		forecasts: forecastService,
		validator: validator,
		fieldMap:  fieldMap,
		config:    config.Pipeline,
		lookback:  common.Duration(config.Provider.Lookback, 365*24*time.Hour),
		sleep:     common.Duration(config.Pipeline.SleepBetween, 2*time.Second),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Run processes companies one at a time. A failing company is logged and
// skipped; the run record carries the processed and failed counts.
func (s *Service) Run(ctx context.Context, companies []common.TargetCompany, opts Options) (*models.EtlRun, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("pipeline run requires a market data provider")
	}

	mode := ModeFull
	if opts.Periodic || s.config.Periodic {
		mode = ModePeriodic
	}

	run, err := s.startRun(ctx, mode)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Str("mode", mode).
		Str("provider", s.provider.Name()).
		Str("field_map", s.fieldMap.Version).
		Int("companies", len(companies)).
		Msg("ETL run started")

	for i, target := range companies {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				break
			}
		}

		if err := s.processCompany(ctx, target, mode == ModePeriodic); err != nil {
			run.Failed++
			if errors.Is(err, validation.ErrNotFound) {
				s.logger.Warn().Err(err).Str("ticker", target.Ticker).Msg("Ticker unknown to provider - skipping")
				continue
			}
			s.logger.Error().Err(err).Str("ticker", target.Ticker).Msg("Company failed - continuing")
			continue
		}
		run.Processed++
	}

	return s.finishRun(ctx, run)
}

// RunForecasts writes forecasts from stored data only, without calling the
// provider. An empty ticker list covers every stored company.
func (s *Service) RunForecasts(ctx context.Context, tickers []string, opts Options) (*models.EtlRun, error) {
	companies, err := s.storedCompanies(ctx, tickers)
	if err != nil {
		return nil, err
	}

	run, err := s.startRun(ctx, ModeForecast)
	if err != nil {
		return nil, err
	}

	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := s.forecast(ctx, company, opts.Periodic || s.config.Periodic); err != nil {
			run.Failed++
			s.logger.Error().Err(err).Str("ticker", company.Ticker).Msg("Forecast failed - continuing")
			continue
		}
		run.Processed++
	}

	return s.finishRun(ctx, run)
}

func (s *Service) storedCompanies(ctx context.Context, tickers []string) ([]*models.Company, error) {
	store := s.storage.CompanyStorage()
	if len(tickers) == 0 {
		return store.ListCompanies(ctx)
	}

	companies := make([]*models.Company, 0, len(tickers))
	for _, t := range tickers {
		company, err := store.GetCompanyByTicker(ctx, validation.NormalizeTicker(t))
		if err != nil {
			if errors.Is(err, validation.ErrNotFound) {
				s.logger.Warn().Str("ticker", t).Msg("Company not in database - run the ETL first")
				continue
			}
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, nil
}

func (s *Service) startRun(ctx context.Context, mode string) (*models.EtlRun, error) {
	run := &models.EtlRun{
		ID:        common.NewRunID(),
		StartedAt: s.now().UTC(),
		Mode:      mode,
	}
	if err := s.storage.RunStorage().StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}
	return run, nil
}

func (s *Service) finishRun(ctx context.Context, run *models.EtlRun) (*models.EtlRun, error) {
	// a cancelled run is still recorded
	if err := s.storage.RunStorage().FinishRun(context.WithoutCancel(ctx), run.ID, run.Processed, run.Failed); err != nil {
		return run, fmt.Errorf("failed to record run finish: %w", err)
	}
	finished := s.now().UTC()
	run.FinishedAt = &finished

	s.logger.Info().
		Str("run_id", run.ID).
		Int("processed", run.Processed).
		Int("failed", run.Failed).
		Str("duration", finished.Sub(run.StartedAt).Round(time.Millisecond).String()).
		Msg("ETL run finished")
	return run, ctx.Err()
}

// pause waits the configured interval between companies
func (s *Service) pause(ctx context.Context) error {
	if s.sleep <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// processCompany runs every stage for one company. Only a failure to
// establish the company itself fails it; later stages log and move on.
func (s *Service) processCompany(ctx context.Context, target common.TargetCompany, periodic bool) error {
	logger := s.logger.WithCorrelationId(target.Ticker)
	logger.Info().Str("ticker", target.Ticker).Msg("Processing company")

	profile, err := s.provider.GetProfile(ctx, target.Ticker)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	company, err := s.loadCompany(ctx, target, profile)
	if err != nil {
		return err
	}

	if n, err := s.loadPrices(ctx, company); err != nil {
		logger.Warn().Err(err).Str("ticker", company.Ticker).Msg("Failed to load prices")
	} else {
		logger.Info().Str("ticker", company.Ticker).Int("rows", n).Msg("Prices loaded")
	}

	if n, err := s.loadStatements(ctx, company); err != nil {
		if errors.Is(err, interfaces.ErrUnsupported) {
			logger.Info().Str("ticker", company.Ticker).Str("provider", s.provider.Name()).Msg("Provider has no statements - skipping")
		} else {
			logger.Warn().Err(err).Str("ticker", company.Ticker).Msg("Failed to load statements")
		}
	} else {
		logger.Info().Str("ticker", company.Ticker).Int("statements", n).Msg("Statements loaded")
	}

	if !s.config.SkipMetrics {
		if err := s.loadMetrics(ctx, company, profile); err != nil {
			logger.Warn().Err(err).Str("ticker", company.Ticker).Msg("Failed to calculate metrics")
		}
	}

	if !s.config.SkipForecasts {
		if err := s.forecast(ctx, company, periodic); err != nil {
			logger.Warn().Err(err).Str("ticker", company.Ticker).Msg("Failed to generate forecasts")
		}
	}
	return nil
}

func sectorName(target common.TargetCompany, profile *models.CompanyProfile) string {
	if name := strings.TrimSpace(target.Sector); name != "" && name != unknownSector {
		return name
	}
	if name := strings.TrimSpace(profile.Sector); name != "" {
		return name
	}
	return unknownSector
}

func (s *Service) loadCompany(ctx context.Context, target common.TargetCompany, profile *models.CompanyProfile) (*models.Company, error) {
	store := s.storage.CompanyStorage()

	sectorID, err := store.GetOrCreateSector(ctx, sectorName(target, profile))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sector: %w", err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = target.Name
	}

	company := &models.Company{
		Ticker:      target.Ticker,
		Name:        name,
		SectorID:    sectorID,
		MarketCap:   profile.MarketCap,
		Country:     profile.Country,
		Exchange:    profile.Exchange,
		Currency:    profile.Currency,
		Description: profile.Description,
	}
	if err := s.validator.Company(company); err != nil {
		return nil, err
	}

	if _, err := store.UpsertCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to store company: %w", err)
	}
	return company, nil
}

// loadPrices fetches the lookback window and upserts every bar with a
// usable close
func (s *Service) loadPrices(ctx context.Context, company *models.Company) (int, error) {
	to := s.now().UTC()
	from := to.Add(-s.lookback)

	raw, err := s.provider.GetPriceHistory(ctx, company.Ticker, from, to)
	if err != nil {
		return 0, err
	}

	bars := make([]models.PriceBar, 0, len(raw))
	for _, r := range raw {
		closePrice := extract.SafePrice(r.Close)
		if closePrice == nil || r.TradeDate.IsZero() {
			continue
		}
		bar := models.PriceBar{
			CompanyID:     company.ID,
			TradeDate:     r.TradeDate,
			Open:          extract.SafePrice(r.Open),
			High:          extract.SafePrice(r.High),
			Low:           extract.SafePrice(r.Low),
			Close:         *closePrice,
			AdjustedClose: extract.SafePrice(r.AdjustedClose),
			Volume:        extract.SafeVolume(r.Volume),
		}
		if bar.AdjustedClose == nil {
			bar.AdjustedClose = models.Float(bar.Close)
		}
		bars = append(bars, bar)
	}

	if skipped := len(raw) - len(bars); skipped > 0 {
		s.logger.Debug().Str("ticker", company.Ticker).Int("skipped", skipped).Msg("Skipped bars without a usable close")
	}
	if len(bars) == 0 {
		return 0, nil
	}
	return s.storage.PriceStorage().UpsertPrices(ctx, bars)
}

// loadStatements maps and upserts the most recent MaxStatements periods of
// each statement kind. It returns the number of detail rows written.
func (s *Service) loadStatements(ctx context.Context, company *models.Company) (int, error) {
	stmts, err := s.provider.GetQuarterlyStatements(ctx, company.Ticker)
	if err != nil {
		return 0, err
	}

	store := s.storage.StatementStorage()
	written := 0

	load := func(kind models.StatementType, records []models.StatementRecord, write func(id int64, rec extract.Record) error) {
		if len(records) > s.config.MaxStatements {
			records = records[:s.config.MaxStatements]
		}
		for _, rec := range records {
			year, quarter := extract.FiscalPeriod(rec.PeriodDate)
			header := &models.StatementHeader{
				CompanyID:     company.ID,
				FiscalYear:    year,
				FiscalQuarter: quarter,
				FilingDate:    rec.PeriodDate,
				Type:          kind,
			}
			if err := s.validator.StatementHeader(header); err != nil {
				s.logger.Warn().Err(err).Str("ticker", company.Ticker).Str("type", string(kind)).Msg("Skipping statement period")
				continue
			}

			id, err := store.UpsertStatementHeader(ctx, header)
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", company.Ticker).Str("type", string(kind)).Msg("Failed to store statement header")
				continue
			}
			if err := write(id, extract.Record(rec.Fields)); err != nil {
				s.logger.Warn().Err(err).Str("ticker", company.Ticker).Str("type", string(kind)).Msg("Failed to store statement detail")
				continue
			}
			written++
		}
	}

	load(models.StatementIncome, stmts.Income, func(id int64, rec extract.Record) error {
		detail := s.fieldMap.MapIncome(rec)
		detail.StatementID = id
		return store.UpsertIncomeStatement(ctx, &detail)
	})
	load(models.StatementBalance, stmts.Balance, func(id int64, rec extract.Record) error {
		detail := s.fieldMap.MapBalance(rec)
		detail.StatementID = id
		return store.UpsertBalanceSheet(ctx, &detail)
	})
	load(models.StatementCashFlow, stmts.CashFlow, func(id int64, rec extract.Record) error {
		detail := s.fieldMap.MapCashFlow(rec)
		detail.StatementID = id
		return store.UpsertCashFlowStatement(ctx, &detail)
	})

	return written, nil
}

// loadMetrics computes one snapshot dated at the latest close
func (s *Service) loadMetrics(ctx context.Context, company *models.Company, profile *models.CompanyProfile) error {
	latest, err := s.storage.PriceStorage().GetLatestPrice(ctx, company.ID)
	if err != nil {
		return fmt.Errorf("no price for metrics: %w", err)
	}

	statements := s.storage.StatementStorage()
	income, err := statements.GetLatestIncomeStatement(ctx, company.ID)
	if err != nil && !errors.Is(err, validation.ErrNotFound) {
		return err
	}
	balance, err := statements.GetLatestBalanceSheet(ctx, company.ID)
	if err != nil && !errors.Is(err, validation.ErrNotFound) {
		return err
	}

	metrics := valuation.Compute(valuation.Inputs{
		CompanyID: company.ID,
		Price:     latest.Close,
		PriceDate: latest.TradeDate,
		Income:    income,
		Balance:   balance,
		Profile:   profile,
	})

	if err := s.storage.MetricsStorage().UpsertMetrics(ctx, &metrics); err != nil {
		return fmt.Errorf("failed to store metrics: %w", err)
	}

	s.logger.Info().
		Str("ticker", company.Ticker).
		Int("metrics", metrics.Count()).
		Str("date", latest.TradeDate.Format("2006-01-02")).
		Msg("Valuation metrics stored")
	return nil
}

func (s *Service) forecast(ctx context.Context, company *models.Company, periodic bool) error {
	if periodic {
		_, err := s.forecasts.GeneratePeriodic(ctx, company.ID)
		return err
	}
	_, err := s.forecasts.GenerateCurrent(ctx, company.ID)
	return err
}
