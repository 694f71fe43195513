package models

import "time"

// MAWindow identifies which moving-average window a deviation refers to.
type MAWindow string

const (
	Window200Day  MAWindow = "200d"
	Window200Week MAWindow = "200w"
)

// TechnicalSnapshot is the per-ticker technicals view, recomputed on each
// fetch. MA and deviation fields are pointers: nil means the series was too
// short to compute a 200-period average, which is reported as absent rather
// than zero.
type TechnicalSnapshot struct {
	Ticker             string   `json:"ticker"`
	Name               string   `json:"name"`
	CurrentPrice       float64  `json:"current_price"`
	MA200D             *float64 `json:"ma_200d,omitempty"`
	DeviationFromMA200D *float64 `json:"deviation_from_ma_200d,omitempty"`
	MA200W             *float64 `json:"ma_200w,omitempty"`
	DeviationFromMA200W *float64 `json:"deviation_from_ma_200w,omitempty"`
	MaxDeviation200D   *float64 `json:"max_deviation_200d,omitempty"`
	MinDeviation200D   *float64 `json:"min_deviation_200d,omitempty"`
	MaxDeviation200W   *float64 `json:"max_deviation_200w,omitempty"`
	MinDeviation200W   *float64 `json:"min_deviation_200w,omitempty"`
}

// DeviationBounds is the persisted historical extremum for one ticker and
// window. Bounds only ever widen: Observe never narrows them.
type DeviationBounds struct {
	Key       string    `json:"key" badgerhold:"key"` // "<ticker>:<window>"
	Ticker    string    `json:"ticker"`
	Window    MAWindow  `json:"window"`
	Max       float64   `json:"max"`
	Min       float64   `json:"min"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoundsKey builds the storage key for a ticker/window pair.
func BoundsKey(ticker string, window MAWindow) string {
	return ticker + ":" + string(window)
}

// NewDeviationBounds seeds bounds from the first observed deviation, so both
// bounds start at the observation rather than zero.
func NewDeviationBounds(ticker string, window MAWindow, deviation float64, now time.Time) *DeviationBounds {
	return &DeviationBounds{
		Key:       BoundsKey(ticker, window),
		Ticker:    ticker,
		Window:    window,
		Max:       deviation,
		Min:       deviation,
		UpdatedAt: now,
	}
}

// Observe widens the bounds if the deviation falls outside them. Returns true
// when either bound changed.
func (b *DeviationBounds) Observe(deviation float64, now time.Time) bool {
	changed := false
	if deviation > b.Max {
		b.Max = deviation
		changed = true
	}
	if deviation < b.Min {
		b.Min = deviation
		changed = true
	}
	if changed {
		b.UpdatedAt = now
	}
	return changed
}
