package util

import "fmt"

// Unit tiers used by SecondsToString.
const (
	SecondsPerYear   = 31536000
	SecondsPerMonth  = 2592000
	SecondsPerDay    = 86400
	SecondsPerHour   = 3600
	SecondsPerMinute = 60
)

// SecondsToString renders a duration in the largest non-zero tier followed by
// the next two smaller units, e.g. 90061 -> "1 Days 1 Hours 1 Minutes".
// Each field is the remainder within its parent tier. Negative input counts as 0.
func SecondsToString(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	// Cascade through the remainders: a year is not a whole number of
	// 30-day months, so days come from what's left after whole months.
	years := seconds / SecondsPerYear
	rem := seconds % SecondsPerYear
	months := rem / SecondsPerMonth
	days := (rem % SecondsPerMonth) / SecondsPerDay
	hours := (seconds % SecondsPerDay) / SecondsPerHour
	minutes := (seconds % SecondsPerHour) / SecondsPerMinute
	secs := seconds % SecondsPerMinute

	switch {
	case years > 0:
		return fmt.Sprintf("%d Years %d Months %d Days", years, months, days)
	case months > 0:
		return fmt.Sprintf("%d Months %d Days %d Hours", months, days, hours)
	case days > 0:
		return fmt.Sprintf("%d Days %d Hours %d Minutes", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d Hours %d Minutes %d Seconds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%d Minutes %d Seconds", minutes, secs)
	default:
		return fmt.Sprintf("%d Seconds", secs)
	}
}
