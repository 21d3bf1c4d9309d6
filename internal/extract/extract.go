// Package extract reads numeric fields out of loosely structured provider
// records. Nothing here returns an error: a field that is missing or garbled
// is reported as absent and the caller decides what to do without it.
package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one sparse provider record keyed by field name
type Record map[string]interface{}

// absentMarkers are string values providers use in place of a number
var absentMarkers = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
}

// Float returns the value stored under key as a float64. The second return
// is false when the key is missing, the value is nil or an absent marker,
// cannot be converted to a number, or is NaN or infinite.
func Float(record Record, key string) (float64, bool) {
	if record == nil {
		return 0, false
	}
	value, ok := record[key]
	if !ok {
		return 0, false
	}
	return ToFloat(value)
}

// First tries each key in order and returns the first present value.
// A present zero wins over later synonyms.
func First(record Record, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := Float(record, key); ok {
			return v, true
		}
	}
	return 0, false
}

// FirstPtr is First returning nil for an absent value
func FirstPtr(record Record, keys ...string) *float64 {
	if v, ok := First(record, keys...); ok {
		return &v
	}
	return nil
}

// ToFloat converts a raw decoded value to a finite float64
func ToFloat(value interface{}) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case *float64:
		if v == nil {
			return 0, false
		}
		f = *v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if _, marker := absentMarkers[strings.ToLower(s)]; marker {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SafePrice converts a raw price, rejecting values outside (0, 1,000,000]
func SafePrice(value interface{}) *float64 {
	f, ok := ToFloat(value)
	if !ok || f <= 0 || f > 1_000_000 {
		return nil
	}
	return &f
}

// MaxVolume is the largest daily volume accepted; the validator uses the same ceiling
const MaxVolume = 1e12

// SafeVolume converts a raw volume; absent, negative or implausibly large
// volumes become zero
func SafeVolume(value interface{}) int64 {
	f, ok := ToFloat(value)
	if !ok || f < 0 || f > MaxVolume {
		return 0
	}
	return int64(f)
}
