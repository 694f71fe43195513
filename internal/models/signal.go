package models

import "time"

// SignalSeverity ranks how urgent a synthesized signal is.
type SignalSeverity string

const (
	SeverityHigh   SignalSeverity = "high"
	SeverityMedium SignalSeverity = "medium"
	SeverityLow    SignalSeverity = "low"
)

// Signal is one synthesized, ranked insight connecting source analyses,
// standing predictions and market technicals.
type Signal struct {
	Type     string         `json:"type" validate:"required"`
	Severity SignalSeverity `json:"severity" validate:"required,oneof=high medium low"`
	Headline string         `json:"headline" validate:"required"`
	Detail   string         `json:"detail"`
	Assets   []string       `json:"assets"`
	Color    string         `json:"color"` // display hint for the UI
}

// SignalCacheEntry holds one day's synthesized signals. Keyed by calendar
// date in the reference market timezone; at most one entry exists per day
// under normal operation, refreshed in place on forced or stale re-synthesis.
type SignalCacheEntry struct {
	Key         string    `json:"key" badgerhold:"key"` // "2006-01-02"
	Data        []Signal  `json:"data"`
	GeneratedAt time.Time `json:"generated_at"`
}
