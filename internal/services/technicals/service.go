// Package technicals implements the technical snapshot provider: batched
// price fetches, 200-period moving-average deviation, and persisted
// historical deviation bounds.
package technicals

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

const (
	// maPeriods is the number of periods in the simple moving average.
	maPeriods = 200

	// snapshotMaxAge is the freshness window for the in-memory snapshot cache.
	snapshotMaxAge = time.Hour
)

// Service computes per-ticker technical snapshots and maintains historical
// deviation bounds.
type Service struct {
	config  *common.TechnicalsConfig
	market  interfaces.MarketDataService
	storage interfaces.TechnicalStorage
	logger  arbor.ILogger

	mu        sync.Mutex
	cached    []models.TechnicalSnapshot
	fetchedAt time.Time
}

// NewService creates a new technicals service.
func NewService(config *common.TechnicalsConfig, market interfaces.MarketDataService, storage interfaces.TechnicalStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		market:  market,
		storage: storage,
		logger:  logger,
	}
}

// SnapshotResult carries the snapshots plus cache metadata for the caller.
type SnapshotResult struct {
	Snapshots []models.TechnicalSnapshot `json:"snapshots"`
	FetchedAt time.Time                  `json:"fetched_at"`
	Cached    bool                       `json:"cached"`
}

// Snapshot returns technical snapshots for the configured universe plus any
// extra tickers. Results are cached in memory with an hour freshness window;
// force bypasses the cache read. A single ticker's failure never aborts the
// run: the ticker is simply absent from the output.
func (s *Service) Snapshot(ctx context.Context, extraTickers []string, force bool) (*SnapshotResult, error) {
	s.mu.Lock()
	if !force && len(extraTickers) == 0 {
		if fresh := common.CheckFreshness(s.fetchedAt, time.Now(), snapshotMaxAge); fresh.IsFresh {
			result := &SnapshotResult{
				Snapshots: s.cached,
				FetchedAt: s.fetchedAt,
				Cached:    true,
			}
			s.mu.Unlock()
			return result, nil
		}
	}
	s.mu.Unlock()

	universe := s.universe(extraTickers)
	snapshots := s.fetchAll(ctx, universe)

	now := time.Now()
	s.mu.Lock()
	if len(extraTickers) == 0 {
		s.cached = snapshots
		s.fetchedAt = now
	}
	s.mu.Unlock()

	return &SnapshotResult{
		Snapshots: snapshots,
		FetchedAt: now,
		Cached:    false,
	}, nil
}

// universe merges configured tickers with dynamically requested ones,
// deduplicated, preserving configured order and display names.
func (s *Service) universe(extra []string) []common.TickerConfig {
	configured := make([]string, 0, len(s.config.Tickers))
	names := make(map[string]string, len(s.config.Tickers))
	for _, t := range s.config.Tickers {
		symbol := common.NormalizeTicker(t.Symbol)
		configured = append(configured, symbol)
		names[symbol] = t.Name
	}

	var out []common.TickerConfig
	for _, symbol := range common.DedupeTickers(configured, extra) {
		name := names[symbol]
		if name == "" {
			name = symbol
		}
		out = append(out, common.TickerConfig{Symbol: symbol, Name: name})
	}
	return out
}

// fetchAll processes the universe in fixed-size batches. Fetches within a
// batch run concurrently; batches run sequentially as admission control
// against the upstream data source. Changed bounds are persisted once at the
// end in a single batched write.
func (s *Service) fetchAll(ctx context.Context, universe []common.TickerConfig) []models.TechnicalSnapshot {
	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	var (
		mu            sync.Mutex
		snapshots     []models.TechnicalSnapshot
		changedBounds []*models.DeviationBounds
	)

	for start := 0; start < len(universe); start += batchSize {
		end := start + batchSize
		if end > len(universe) {
			end = len(universe)
		}

		var wg sync.WaitGroup
		for _, ticker := range universe[start:end] {
			wg.Add(1)
			go func(ticker common.TickerConfig) {
				defer wg.Done()
				snapshot, changed := s.fetchOne(ctx, ticker)
				if snapshot == nil {
					return
				}
				mu.Lock()
				snapshots = append(snapshots, *snapshot)
				changedBounds = append(changedBounds, changed...)
				mu.Unlock()
			}(ticker)
		}
		wg.Wait()
	}

	// Preserve universe order: concurrent completion order is arbitrary.
	ordered := make([]models.TechnicalSnapshot, 0, len(snapshots))
	for _, ticker := range universe {
		for i := range snapshots {
			if snapshots[i].Ticker == ticker.Symbol {
				ordered = append(ordered, snapshots[i])
				break
			}
		}
	}

	if len(changedBounds) > 0 {
		if err := s.storage.UpsertBoundsBatch(ctx, changedBounds); err != nil {
			// Non-fatal: bounds simply widen again on a later pass.
			s.logger.Warn().Err(err).Int("count", len(changedBounds)).Msg("Failed to persist deviation bounds batch")
		}
	}

	return ordered
}

// fetchOne builds the snapshot for a single ticker. Returns nil when the
// ticker produced no usable data, which excludes it from the output entirely.
// The second return value lists bound rows widened by this observation.
func (s *Service) fetchOne(ctx context.Context, ticker common.TickerConfig) (*models.TechnicalSnapshot, []*models.DeviationBounds) {
	daily, err := s.market.FetchCloses(ctx, ticker.Symbol, s.config.DailyRange, "1d")
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker.Symbol).Msg("Daily series fetch failed, skipping ticker")
		return nil, nil
	}
	if len(daily) == 0 {
		s.logger.Debug().Str("ticker", ticker.Symbol).Msg("Empty daily series, skipping ticker")
		return nil, nil
	}

	weekly, err := s.market.FetchCloses(ctx, ticker.Symbol, s.config.WeeklyRange, "1wk")
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker.Symbol).Msg("Weekly series fetch failed, continuing without weekly window")
		weekly = nil
	}

	snapshot := &models.TechnicalSnapshot{
		Ticker:       ticker.Symbol,
		Name:         ticker.Name,
		CurrentPrice: daily[len(daily)-1],
	}

	var changed []*models.DeviationBounds

	if ma, deviation, ok := movingAverageDeviation(daily); ok {
		snapshot.MA200D = &ma
		snapshot.DeviationFromMA200D = &deviation
		if bounds := s.observeBounds(ctx, ticker.Symbol, models.Window200Day, deviation); bounds != nil {
			changed = append(changed, bounds.updated...)
			snapshot.MaxDeviation200D = &bounds.max
			snapshot.MinDeviation200D = &bounds.min
		}
	}

	if ma, deviation, ok := movingAverageDeviation(weekly); ok {
		snapshot.MA200W = &ma
		snapshot.DeviationFromMA200W = &deviation
		if bounds := s.observeBounds(ctx, ticker.Symbol, models.Window200Week, deviation); bounds != nil {
			changed = append(changed, bounds.updated...)
			snapshot.MaxDeviation200W = &bounds.max
			snapshot.MinDeviation200W = &bounds.min
		}
	}

	return snapshot, changed
}

// boundsObservation reports the current bounds after observing a deviation,
// plus any rows that need persisting.
type boundsObservation struct {
	max, min float64
	updated  []*models.DeviationBounds
}

// observeBounds loads (or seeds) the persisted bounds for a ticker/window,
// widens them if the deviation falls outside, and reports rows to persist.
// Storage read failures degrade to no bound mutation for this pass.
func (s *Service) observeBounds(ctx context.Context, ticker string, window models.MAWindow, deviation float64) *boundsObservation {
	now := time.Now()

	bounds, err := s.storage.GetBounds(ctx, ticker, window)
	if err == interfaces.ErrNotFound {
		seeded := models.NewDeviationBounds(ticker, window, deviation, now)
		return &boundsObservation{max: seeded.Max, min: seeded.Min, updated: []*models.DeviationBounds{seeded}}
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Str("window", string(window)).Msg("Failed to load deviation bounds")
		return nil
	}

	if bounds.Observe(deviation, now) {
		return &boundsObservation{max: bounds.Max, min: bounds.Min, updated: []*models.DeviationBounds{bounds}}
	}
	return &boundsObservation{max: bounds.Max, min: bounds.Min}
}

// movingAverageDeviation computes the 200-period SMA over the series tail and
// the percentage deviation of the latest close from it. ok is false when the
// series is shorter than 200 periods: the average is then reported as absent,
// never zero.
func movingAverageDeviation(closes []float64) (ma float64, deviation float64, ok bool) {
	if len(closes) < maPeriods {
		return 0, 0, false
	}

	sum := 0.0
	for _, c := range closes[len(closes)-maPeriods:] {
		sum += c
	}
	ma = sum / maPeriods
	if ma == 0 {
		return 0, 0, false
	}

	latest := closes[len(closes)-1]
	deviation = (latest - ma) / ma * 100
	return ma, deviation, true
}
