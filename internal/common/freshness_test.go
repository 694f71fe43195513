package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckFreshness_WithinWindow(t *testing.T) {
	now := time.Now()
	result := CheckFreshness(now.Add(-23*time.Hour), now, 24*time.Hour)

	assert.True(t, result.IsFresh)
	assert.Equal(t, 23*time.Hour, result.Age)
}

func TestCheckFreshness_BeyondWindow(t *testing.T) {
	now := time.Now()
	result := CheckFreshness(now.Add(-25*time.Hour), now, 24*time.Hour)

	assert.False(t, result.IsFresh)
	assert.Equal(t, 25*time.Hour, result.Age)
}

func TestCheckFreshness_ExactBoundaryIsStale(t *testing.T) {
	now := time.Now()
	result := CheckFreshness(now.Add(-24*time.Hour), now, 24*time.Hour)

	assert.False(t, result.IsFresh)
}

func TestCheckFreshness_ZeroTimestampIsStale(t *testing.T) {
	result := CheckFreshness(time.Time{}, time.Now(), 24*time.Hour)

	assert.False(t, result.IsFresh)
	assert.Contains(t, result.Reason, "no generation timestamp")
}

func TestCheckFreshness_FutureTimestampClamped(t *testing.T) {
	now := time.Now()
	result := CheckFreshness(now.Add(time.Hour), now, 24*time.Hour)

	assert.True(t, result.IsFresh)
	assert.Equal(t, time.Duration(0), result.Age)
}

func TestDayKey_ReferenceTimezone(t *testing.T) {
	// 2am UTC is still the previous day in New York.
	instant := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-09", DayKey(instant, "America/New_York"))
	assert.Equal(t, "2026-03-10", DayKey(instant, "UTC"))
}

func TestDayKey_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	instant := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-10", DayKey(instant, "Not/AZone"))
}
