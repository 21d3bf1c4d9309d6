// Package validation applies the business rules for user-supplied records:
// price bars, forecasts, companies and valuation metrics. Rules are struct
// tags on the models plus struct-level checks registered here.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/equitydb/internal/models"
)

// MaxForecastHorizonDays bounds how far a target date may sit from its forecast date
const MaxForecastHorizonDays = 1825

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// struct-level rule messages, keyed by the tag they are reported under
var ruleMessages = map[string]string{
	"high_low":       "high price must be >= low price",
	"high_open":      "high price must be >= open price",
	"high_close":     "high price must be >= close price",
	"low_open":       "low price must be <= open price",
	"low_close":      "low price must be <= close price",
	"not_future":     "date cannot be in the future",
	"after_forecast": "target date must be after forecast date",
	"max_horizon":    fmt.Sprintf("target date cannot be more than %d days from forecast date", MaxForecastHorizonDays),
}

// Validator checks models against their tags and the struct-level rules
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Validator
type Option func(*Validator)

// WithClock overrides the clock used for "not in the future" rules
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New creates a Validator with the custom tags and struct rules registered
func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// registration only fails for empty tags or nil funcs
	_ = v.validate.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("recommendation", func(fl validator.FieldLevel) bool {
		return IsRecommendation(fl.Field().String())
	})

	v.validate.RegisterStructValidation(v.priceBarRules, models.PriceBar{})
	v.validate.RegisterStructValidation(v.forecastRules, models.Forecast{})

	return v
}

// NormalizeTicker trims and upper-cases a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// IsRecommendation reports whether s is one of the five recommendation values
func IsRecommendation(s string) bool {
	for _, r := range models.Recommendations {
		if string(r) == s {
			return true
		}
	}
	return false
}

// Ticker validates a ticker after normalisation
func (v *Validator) Ticker(ticker string) error {
	t := NormalizeTicker(ticker)
	if t == "" {
		return &ValidationError{Field: "ticker_symbol", Message: "ticker symbol is required"}
	}
	if !tickerPattern.MatchString(t) {
		return &ValidationError{Field: "ticker_symbol", Message: "ticker symbol must be 1-10 letters or digits"}
	}
	return nil
}

// PriceBar validates price ranges, volume and the OHLC relationships
func (v *Validator) PriceBar(bar *models.PriceBar) error {
	return v.Struct(bar)
}

// Forecast validates a forecast before it is written
func (v *Validator) Forecast(f *models.Forecast) error {
	return v.Struct(f)
}

// Company normalises the ticker in place and validates the company
func (v *Validator) Company(c *models.Company) error {
	c.Ticker = NormalizeTicker(c.Ticker)
	c.Name = strings.TrimSpace(c.Name)
	return v.Struct(c)
}

// Metrics validates the bounded valuation ratios
func (v *Validator) Metrics(m *models.ValuationMetrics) error {
	return v.Struct(m)
}

// StatementHeader validates the fiscal period of a statement
func (v *Validator) StatementHeader(h *models.StatementHeader) error {
	if err := v.Struct(h); err != nil {
		return err
	}
	if h.FiscalYear > v.now().Year()+1 {
		return &ValidationError{Field: "FiscalYear", Message: "fiscal year cannot be more than 1 year in the future"}
	}
	return nil
}

// Struct runs the tag and struct-level rules, returning the first failure
// as a *ValidationError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: message(fe)}
}

func message(fe validator.FieldError) string {
	if msg, ok := ruleMessages[fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "ticker":
		return "ticker symbol must be 1-10 letters or digits"
	case "recommendation":
		names := make([]string, len(models.Recommendations))
		for i, r := range models.Recommendations {
			names[i] = string(r)
		}
		return "must be one of: " + strings.Join(names, ", ")
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

func (v *Validator) priceBarRules(sl validator.StructLevel) {
	bar := sl.Current().Interface().(models.PriceBar)

	if !bar.TradeDate.IsZero() && day(bar.TradeDate).After(day(v.now())) {
		sl.ReportError(bar.TradeDate, "trade_date", "TradeDate", "not_future", "")
	}

	// OHLC relationships apply only between the prices that are present
	closePrice := &bar.Close
	if bar.High != nil {
		if bar.Low != nil && *bar.High < *bar.Low {
			sl.ReportError(bar.High, "high_price", "High", "high_low", "")
		}
		if bar.Open != nil && *bar.High < *bar.Open {
			sl.ReportError(bar.High, "high_price", "High", "high_open", "")
		}
		if *bar.High < *closePrice {
			sl.ReportError(bar.High, "high_price", "High", "high_close", "")
		}
	}
	if bar.Low != nil {
		if bar.Open != nil && *bar.Low > *bar.Open {
			sl.ReportError(bar.Low, "low_price", "Low", "low_open", "")
		}
		if *bar.Low > *closePrice {
			sl.ReportError(bar.Low, "low_price", "Low", "low_close", "")
		}
	}
}

func (v *Validator) forecastRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(models.Forecast)
	if f.ForecastDate.IsZero() || f.TargetDate.IsZero() {
		return
	}

	forecastDay, targetDay := day(f.ForecastDate), day(f.TargetDate)
	if !targetDay.After(forecastDay) {
		sl.ReportError(f.TargetDate, "target_date", "TargetDate", "after_forecast", "")
	}
	if forecastDay.After(day(v.now())) {
		sl.ReportError(f.ForecastDate, "forecast_date", "ForecastDate", "not_future", "")
	}
	if targetDay.Sub(forecastDay) > MaxForecastHorizonDays*24*time.Hour {
		sl.ReportError(f.TargetDate, "target_date", "TargetDate", "max_horizon", "")
	}
}

// day truncates t to its calendar date
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
