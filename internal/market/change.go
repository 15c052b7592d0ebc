package market

import (
	"context"
	"time"
)

// Calendar-day buffer fetched before the target date, enough to absorb
// weekends and holiday stretches.
const changeLookbackDays = 10

// ChangeResolver computes the percentage price change for a symbol on a
// given date versus the previous trading session.
type ChangeResolver struct {
	source PriceSource
}

// NewChangeResolver creates a resolver on top of a price source.
func NewChangeResolver(source PriceSource) *ChangeResolver {
	return &ChangeResolver{source: source}
}

// Change returns the close-over-close change in percent for date.
// Any fetch error, missing series, or series shorter than two points
// resolves to a neutral 0.0 so one bad symbol never aborts a scan.
// Single attempt, no retries.
func (r *ChangeResolver) Change(ctx context.Context, symbol, date string) float64 {
	end, err := time.ParseInLocation("2006-01-02", date, KST)
	if err != nil {
		return 0.0
	}
	start := end.AddDate(0, 0, -changeLookbackDays)

	closes, err := r.source.Closes(ctx, symbol, start, end)
	if err != nil || len(closes) < 2 {
		return 0.0
	}

	prev := closes[len(closes)-2]
	last := closes[len(closes)-1]
	if prev == 0 {
		return 0.0
	}
	return (last - prev) / prev * 100
}
