package common

import (
	"fmt"
	"time"
)

// FreshnessResult contains the result of a cache freshness check.
type FreshnessResult struct {
	// IsFresh indicates whether the cached entry can be served as-is.
	IsFresh bool
	// Age is how old the entry is at check time.
	Age time.Duration
	// Reason provides a human-readable explanation for the decision.
	Reason string
}

// CheckFreshness decides whether a cache entry generated at generatedAt is
// still servable at now, given a max-age window. Staleness is defined purely
// by age against the window, not by day boundary: an entry written at 11pm is
// still fresh the next morning.
func CheckFreshness(generatedAt, now time.Time, maxAge time.Duration) FreshnessResult {
	if generatedAt.IsZero() {
		return FreshnessResult{
			IsFresh: false,
			Reason:  "no generation timestamp, assuming stale",
		}
	}

	age := now.Sub(generatedAt)
	if age < 0 {
		// Clock skew: a future timestamp is treated as just generated.
		age = 0
	}

	if age >= maxAge {
		return FreshnessResult{
			IsFresh: false,
			Age:     age,
			Reason:  fmt.Sprintf("entry is %s old, exceeds max age %s", age.Round(time.Minute), maxAge),
		}
	}

	return FreshnessResult{
		IsFresh: true,
		Age:     age,
		Reason:  fmt.Sprintf("entry is %s old, within max age %s", age.Round(time.Minute), maxAge),
	}
}

// DayKey returns the calendar-day cache key for now in the given reference
// timezone, formatted as 2006-01-02. Falls back to UTC if the location fails
// to load so a bad timezone config degrades rather than panics.
func DayKey(now time.Time, timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}
