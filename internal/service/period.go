package service

import (
	"time"

	"github.com/neonclub/neon-api/internal/constants"
)

// PeriodKeyFor returns the commission period key containing t.
func PeriodKeyFor(t time.Time) string {
	return t.UTC().Format(constants.PeriodKeyLayout)
}

// CurrentPeriodKey returns the key of the running period.
func CurrentPeriodKey() string {
	return PeriodKeyFor(time.Now())
}

// PreviousPeriodKey returns the key of the period before the one containing t.
func PreviousPeriodKey(t time.Time) string {
	first := time.Date(t.UTC().Year(), t.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	return PeriodKeyFor(first.AddDate(0, 0, -1))
}

// ParsePeriodKey parses a period key, returning the first instant of the
// period in UTC.
func ParsePeriodKey(key string) (time.Time, error) {
	return time.ParseInLocation(constants.PeriodKeyLayout, key, time.UTC)
}

// PeriodElapsed reports whether the period identified by key has fully ended
// as of now.
func PeriodElapsed(key string, now time.Time) bool {
	start, err := ParsePeriodKey(key)
	if err != nil {
		return false
	}
	return !now.UTC().Before(start.AddDate(0, 1, 0))
}
