package interfaces

import "context"

// MarketDataService fetches historical closing prices for a ticker.
// Implementations must filter gaps (null closes) before returning, and must
// yield an empty series rather than an error for absent or malformed upstream
// responses, so a single ticker failure degrades instead of aborting a batch.
type MarketDataService interface {
	// FetchCloses returns closing prices oldest first for the given range
	// and interval (e.g. rng "10y", interval "1d" or "1wk").
	FetchCloses(ctx context.Context, ticker, rng, interval string) ([]float64, error)
}
