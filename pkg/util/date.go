package util

import "time"

// APIDate is the calendar-day format the market data providers accept.
const APIDate = "2006-01-02"

// DayRange returns the [from, to] calendar range covering the last n days
// up to now, formatted as APIDate.
func DayRange(now time.Time, days int) (string, string) {
	return now.AddDate(0, 0, -days).Format(APIDate), now.Format(APIDate)
}

// ParseAPIDate parses an APIDate string. Returns (t, true) if it parsed.
func ParseAPIDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(APIDate, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
