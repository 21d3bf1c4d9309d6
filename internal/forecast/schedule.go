package forecast

import (
	"time"

	"github.com/ternarybob/equitydb/internal/models"
)

// Periodic backtest walk
const (
	PeriodicStep     = 15 * 24 * time.Hour
	minFollowingBars = 5
)

// Checkpoint is one historical point to forecast from
type Checkpoint struct {
	Index        int // index of the bar in the series
	Cutoff       int // prefix length handed to EstimatePriceAt
	ForecastDate time.Time
	TargetDate   time.Time
}

// PeriodicCheckpoints walks a chronological date series from its first to
// its last date in step increments and picks the bar closest to each step
// (earliest wins on a tie). Points with fewer than MinPricePoints bars
// before them are skipped; the walk ends at the first point with fewer
// than five bars after it.
func PeriodicCheckpoints(dates []time.Time, step time.Duration) []Checkpoint {
	if len(dates) == 0 || step <= 0 {
		return nil
	}

	var checkpoints []Checkpoint
	end := dates[len(dates)-1]
	for current := dates[0]; !current.After(end); current = current.Add(step) {
		idx := closestIndex(dates, current)
		if idx < MinPricePoints {
			continue
		}
		if len(dates)-1-idx < minFollowingBars {
			break
		}

		forecastDate := truncateDay(dates[idx])
		checkpoints = append(checkpoints, Checkpoint{
			Index:        idx,
			Cutoff:       idx + 1,
			ForecastDate: forecastDate,
			TargetDate:   forecastDate.Add(models.ForecastHorizon),
		})
	}
	return checkpoints
}

// closestIndex returns the index of the date nearest to target
func closestIndex(dates []time.Time, target time.Time) int {
	best := 0
	bestDiff := absDuration(dates[0].Sub(target))
	for i := 1; i < len(dates); i++ {
		if diff := absDuration(dates[i].Sub(target)); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
