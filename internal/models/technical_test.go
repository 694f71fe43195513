package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDeviationBounds_SeedsFromFirstObservation(t *testing.T) {
	now := time.Now()
	b := NewDeviationBounds("SPY", Window200Day, -3.5, now)

	assert.Equal(t, "SPY:200d", b.Key)
	assert.Equal(t, -3.5, b.Max)
	assert.Equal(t, -3.5, b.Min)
}

func TestObserve_BoundsNeverNarrow(t *testing.T) {
	now := time.Now()
	b := NewDeviationBounds("SPY", Window200Day, 2.0, now)

	observations := []float64{5.0, -1.0, 3.0, -4.0, 0.0, 4.9}
	for _, d := range observations {
		b.Observe(d, now)
	}

	// max(2.0, observations...) and min(2.0, observations...)
	assert.Equal(t, 5.0, b.Max)
	assert.Equal(t, -4.0, b.Min)
}

func TestObserve_ReportsChange(t *testing.T) {
	now := time.Now()
	b := NewDeviationBounds("QQQ", Window200Week, 1.0, now)

	assert.True(t, b.Observe(2.0, now))
	assert.False(t, b.Observe(1.5, now)) // inside bounds
	assert.True(t, b.Observe(-1.0, now))
	assert.False(t, b.Observe(2.0, now)) // equal to max, not outside
}
