package forecast

import "math"

// ewmaSpan is the smoothing span of the EWMA model
const ewmaSpan = 20

// tradingDays annualises daily volatility
const tradingDays = 252

// ewmaLast returns the last value of an adjusted exponentially weighted
// moving average: weights (1-alpha)^i normalised over every observation.
func ewmaLast(values []float64, span int) float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	weight := 1.0
	num, den := 0.0, 0.0
	for i := len(values) - 1; i >= 0; i-- {
		num += weight * values[i]
		den += weight
		weight *= decay
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// sma calculates the simple moving average of the last n values
func sma(values []float64, n int) float64 {
	if len(values) < n || n <= 0 {
		return 0
	}
	return avg(values[len(values)-n:])
}

// avg calculates the average of all values
func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev calculates the sample standard deviation
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := avg(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// pctChanges returns the day-over-day fractional changes of a series
func pctChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		changes = append(changes, (values[i]-values[i-1])/values[i-1])
	}
	return changes
}

// annualisedVolatility is the sample stdev of daily changes scaled to a year
func annualisedVolatility(values []float64) float64 {
	return stddev(pctChanges(values)) * math.Sqrt(tradingDays)
}

// finite reports whether every value is a usable number
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
