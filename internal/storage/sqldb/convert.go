package sqldb

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// dateValue formats a date for DATE/TEXT columns
func dateValue(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// parseDate reads a date column. SQLite returns the stored text while
// Postgres DATE values arrive as RFC3339 strings; both start with the date.
func parseDate(s string) time.Time {
	if len(s) >= len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func timestampValue(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	// postgres text form without the T separator
	if t, err := time.Parse("2006-01-02 15:04:05.999999999-07", s); err == nil {
		return t
	}
	return parseDate(s)
}

// rounded returns v rounded to places decimal places. Nil and non-finite
// values are stored as NULL.
func rounded(v *float64, places int32) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r, _ := decimal.NewFromFloat(*v).Round(places).Float64()
	return &r
}
