package technicals

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// fakeMarketData returns scripted close series per ticker/interval.
type fakeMarketData struct {
	mu     sync.Mutex
	series map[string][]float64 // "<ticker>/<interval>"
	calls  int
}

func (f *fakeMarketData) FetchCloses(ctx context.Context, ticker, rng, interval string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.series[ticker+"/"+interval], nil
}

// fakeTechnicalStorage is an in-memory bounds store.
type fakeTechnicalStorage struct {
	mu     sync.Mutex
	bounds map[string]*models.DeviationBounds
}

func newFakeTechnicalStorage() *fakeTechnicalStorage {
	return &fakeTechnicalStorage{bounds: make(map[string]*models.DeviationBounds)}
}

func (f *fakeTechnicalStorage) GetBounds(ctx context.Context, ticker string, window models.MAWindow) (*models.DeviationBounds, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bounds[models.BoundsKey(ticker, window)]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeTechnicalStorage) UpsertBoundsBatch(ctx context.Context, bounds []*models.DeviationBounds) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range bounds {
		copied := *b
		f.bounds[b.Key] = &copied
	}
	return nil
}

func flatSeries(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func testConfig(tickers ...string) *common.TechnicalsConfig {
	cfg := &common.TechnicalsConfig{
		BatchSize:   2,
		DailyRange:  "10y",
		WeeklyRange: "10y",
	}
	for _, symbol := range tickers {
		cfg.Tickers = append(cfg.Tickers, common.TickerConfig{Symbol: symbol, Name: symbol})
	}
	return cfg
}

func TestSnapshot_ComputesMovingAverageDeviation(t *testing.T) {
	// 199 closes at 100 plus a final close at 120:
	// MA = 20020/200 = 100.1, deviation = (120-100.1)/100.1*100
	daily := append(flatSeries(199, 100), 120)

	market := &fakeMarketData{series: map[string][]float64{
		"SPY/1d":  daily,
		"SPY/1wk": flatSeries(250, 50),
	}}
	storage := newFakeTechnicalStorage()
	svc := NewService(testConfig("SPY"), market, storage, arbor.NewLogger())

	result, err := svc.Snapshot(context.Background(), nil, false)
	require.NoError(t, err)
	require.Len(t, result.Snapshots, 1)

	snap := result.Snapshots[0]
	assert.Equal(t, "SPY", snap.Ticker)
	assert.Equal(t, 120.0, snap.CurrentPrice)
	require.NotNil(t, snap.MA200D)
	assert.InDelta(t, 100.1, *snap.MA200D, 0.0001)
	require.NotNil(t, snap.DeviationFromMA200D)
	assert.InDelta(t, 19.880, *snap.DeviationFromMA200D, 0.001)

	// Weekly series is flat, deviation 0
	require.NotNil(t, snap.DeviationFromMA200W)
	assert.InDelta(t, 0.0, *snap.DeviationFromMA200W, 0.0001)

	// Bounds seeded from first observation
	bounds, err := storage.GetBounds(context.Background(), "SPY", models.Window200Day)
	require.NoError(t, err)
	assert.InDelta(t, *snap.DeviationFromMA200D, bounds.Max, 0.0001)
	assert.InDelta(t, *snap.DeviationFromMA200D, bounds.Min, 0.0001)
}

func TestSnapshot_ShortSeriesReportedAbsent(t *testing.T) {
	// 150 daily points: below the 200-period requirement.
	market := &fakeMarketData{series: map[string][]float64{
		"SPY/1d": flatSeries(150, 100),
	}}
	storage := newFakeTechnicalStorage()
	svc := NewService(testConfig("SPY"), market, storage, arbor.NewLogger())

	result, err := svc.Snapshot(context.Background(), nil, false)
	require.NoError(t, err)
	require.Len(t, result.Snapshots, 1)

	snap := result.Snapshots[0]
	assert.Nil(t, snap.MA200D)
	assert.Nil(t, snap.DeviationFromMA200D)
	assert.Nil(t, snap.MA200W)
	assert.Nil(t, snap.DeviationFromMA200W)

	// No bound mutation on that pass
	_, err = storage.GetBounds(context.Background(), "SPY", models.Window200Day)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestSnapshot_BatchIsolation(t *testing.T) {
	// QQQ has no data at all; SPY and GLD are healthy.
	market := &fakeMarketData{series: map[string][]float64{
		"SPY/1d": flatSeries(200, 100),
		"GLD/1d": flatSeries(200, 180),
	}}
	storage := newFakeTechnicalStorage()
	svc := NewService(testConfig("SPY", "QQQ", "GLD"), market, storage, arbor.NewLogger())

	result, err := svc.Snapshot(context.Background(), nil, false)
	require.NoError(t, err)

	// The failing ticker is simply absent, not an error entry
	require.Len(t, result.Snapshots, 2)
	assert.Equal(t, "SPY", result.Snapshots[0].Ticker)
	assert.Equal(t, "GLD", result.Snapshots[1].Ticker)
}

func TestSnapshot_BoundsWidenAcrossRuns(t *testing.T) {
	storage := newFakeTechnicalStorage()

	run := func(lastClose float64) *models.DeviationBounds {
		market := &fakeMarketData{series: map[string][]float64{
			"SPY/1d": append(flatSeries(199, 100), lastClose),
		}}
		svc := NewService(testConfig("SPY"), market, storage, arbor.NewLogger())
		_, err := svc.Snapshot(context.Background(), nil, true)
		require.NoError(t, err)

		bounds, err := storage.GetBounds(context.Background(), "SPY", models.Window200Day)
		require.NoError(t, err)
		return bounds
	}

	first := run(120) // deviation ~ +19.88
	assert.Greater(t, first.Max, 19.0)

	second := run(80) // deviation ~ -19.92, widens min only
	assert.Equal(t, first.Max, second.Max)
	assert.Less(t, second.Min, -19.0)

	third := run(110) // inside bounds, nothing changes
	assert.Equal(t, second.Max, third.Max)
	assert.Equal(t, second.Min, third.Min)
}

func TestSnapshot_ServedFromCacheWithinWindow(t *testing.T) {
	market := &fakeMarketData{series: map[string][]float64{
		"SPY/1d": flatSeries(200, 100),
	}}
	svc := NewService(testConfig("SPY"), market, newFakeTechnicalStorage(), arbor.NewLogger())

	first, err := svc.Snapshot(context.Background(), nil, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	callsAfterFirst := market.calls

	second, err := svc.Snapshot(context.Background(), nil, false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, callsAfterFirst, market.calls, "cached read must not refetch")
	assert.WithinDuration(t, first.FetchedAt, second.FetchedAt, time.Second)

	third, err := svc.Snapshot(context.Background(), nil, true)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Greater(t, market.calls, callsAfterFirst)
}

func TestSnapshot_ExtraTickersExtendUniverse(t *testing.T) {
	market := &fakeMarketData{series: map[string][]float64{
		"SPY/1d":  flatSeries(200, 100),
		"NVDA/1d": flatSeries(200, 500),
	}}
	svc := NewService(testConfig("SPY"), market, newFakeTechnicalStorage(), arbor.NewLogger())

	result, err := svc.Snapshot(context.Background(), []string{"nvda", "SPY"}, false)
	require.NoError(t, err)
	require.Len(t, result.Snapshots, 2)
	assert.Equal(t, "SPY", result.Snapshots[0].Ticker)
	assert.Equal(t, "NVDA", result.Snapshots[1].Ticker)
}
