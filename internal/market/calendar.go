package market

import "time"

// KST is the pipeline's reference timezone.
var KST = time.FixedZone("KST", 9*60*60)

// Now returns the current time in the reference timezone.
func Now() time.Time {
	return time.Now().In(KST)
}

// LastTradingDay returns the most recent trading day (YYYY-MM-DD) for a
// market as seen from now. US sessions close early morning KST, so a
// crawl before 09:00 KST is attributed to the previous calendar day.
// Weekends roll back to Friday; single-day holidays are absorbed by the
// price-series lookback buffer downstream.
func LastTradingDay(now time.Time, market string) string {
	day := now.In(KST)
	if market == "US" && day.Hour() < 9 {
		day = day.AddDate(0, 0, -1)
	}
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day.Format("2006-01-02")
}
