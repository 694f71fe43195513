package signals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/technicals"
)

// fakeLLM returns one canned response and counts calls.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Close() error                          { return nil }

// fakeAnalysisStorage serves fixed analysis and prediction lists.
type fakeAnalysisStorage struct {
	analyses    []*models.ContentAnalysis
	predictions []*models.Prediction
}

func (f *fakeAnalysisStorage) SaveAnalysis(ctx context.Context, a *models.ContentAnalysis) error {
	return nil
}

func (f *fakeAnalysisStorage) GetAnalysis(ctx context.Context, id string) (*models.ContentAnalysis, error) {
	return nil, interfaces.ErrNotFound
}

func (f *fakeAnalysisStorage) GetAnalysisByContentID(ctx context.Context, contentID string) (*models.ContentAnalysis, error) {
	return nil, interfaces.ErrNotFound
}

func (f *fakeAnalysisStorage) ListAnalyses(ctx context.Context, limit int) ([]*models.ContentAnalysis, error) {
	return f.analyses, nil
}

func (f *fakeAnalysisStorage) SavePrediction(ctx context.Context, p *models.Prediction) error {
	return nil
}

func (f *fakeAnalysisStorage) UpdatePrediction(ctx context.Context, p *models.Prediction) error {
	return nil
}

func (f *fakeAnalysisStorage) ListPredictions(ctx context.Context, limit int) ([]*models.Prediction, error) {
	return f.predictions, nil
}

func (f *fakeAnalysisStorage) ListPredictionsByAnalysis(ctx context.Context, analysisID string) ([]*models.Prediction, error) {
	return nil, nil
}

// fakeSignalCache is an in-memory day cache with injectable failures.
type fakeSignalCache struct {
	entries  map[string]*models.SignalCacheEntry
	getErr   error
	putErr   error
	putCalls int
}

func newFakeSignalCache() *fakeSignalCache {
	return &fakeSignalCache{entries: make(map[string]*models.SignalCacheEntry)}
}

func (f *fakeSignalCache) GetEntry(ctx context.Context, key string) (*models.SignalCacheEntry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if e, ok := f.entries[key]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeSignalCache) UpsertEntry(ctx context.Context, entry *models.SignalCacheEntry) error {
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	copied := *entry
	f.entries[entry.Key] = &copied
	return nil
}

// noMarket serves no series at all, so the technicals collaborator
// contributes nothing to the synthesis dataset.
type noMarket struct{}

func (noMarket) FetchCloses(ctx context.Context, ticker, rng, interval string) ([]float64, error) {
	return nil, nil
}

type noTechnicalStorage struct{}

func (noTechnicalStorage) GetBounds(ctx context.Context, ticker string, window models.MAWindow) (*models.DeviationBounds, error) {
	return nil, interfaces.ErrNotFound
}

func (noTechnicalStorage) UpsertBoundsBatch(ctx context.Context, bounds []*models.DeviationBounds) error {
	return nil
}

func emptyTechnicals() *technicals.Service {
	return technicals.NewService(&common.TechnicalsConfig{BatchSize: 1}, noMarket{}, noTechnicalStorage{}, arbor.NewLogger())
}

func signalsConfig() *common.SignalsConfig {
	return &common.SignalsConfig{
		MaxAgeHours: 24,
		Timezone:    "America/New_York",
		MinSignals:  6,
		MaxSignals:  10,
	}
}

func oneAnalysis() []*models.ContentAnalysis {
	return []*models.ContentAnalysis{{
		ID:               "analysis_1",
		SourceName:       "Test Letter",
		SentimentOverall: models.SentimentBearish,
		Summary:          "Crypto is rolling over.",
	}}
}

const validSignalResponse = `Here are the signals:
[
  {"type": "divergence", "severity": "high", "headline": "Crypto breaking down", "assets": ["NYSE:BRK-B", "btc-usd"]},
  {"type": "consensus", "severity": "low", "headline": "Gold bid persists"}
]`

func TestSynthesize_FreshCacheServedWithoutSynthesis(t *testing.T) {
	cache := newFakeSignalCache()
	now := time.Now()
	dayKey := common.DayKey(now, "America/New_York")
	cache.entries[dayKey] = &models.SignalCacheEntry{
		Key:         dayKey,
		Data:        []models.Signal{{Type: "divergence", Severity: models.SeverityHigh, Headline: "cached"}},
		GeneratedAt: now.Add(-2 * time.Hour),
	}

	llm := &fakeLLM{response: validSignalResponse}
	engine := NewEngine(signalsConfig(), llm, &fakeAnalysisStorage{analyses: oneAnalysis()}, cache, emptyTechnicals(), arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.Equal(t, "cached", result.Signals[0].Headline)
	assert.InDelta(t, float64(2*time.Hour), float64(result.Age), float64(time.Minute))
	assert.Zero(t, llm.calls, "fresh cache must not trigger synthesis")
	assert.Zero(t, cache.putCalls)
}

func TestSynthesize_StaleEntryResynthesizedInPlace(t *testing.T) {
	cache := newFakeSignalCache()
	now := time.Now()
	dayKey := common.DayKey(now, "America/New_York")
	cache.entries[dayKey] = &models.SignalCacheEntry{
		Key:         dayKey,
		Data:        []models.Signal{{Type: "old", Severity: models.SeverityLow, Headline: "stale"}},
		GeneratedAt: now.Add(-25 * time.Hour),
	}

	llm := &fakeLLM{response: validSignalResponse}
	engine := NewEngine(signalsConfig(), llm, &fakeAnalysisStorage{analyses: oneAnalysis()}, cache, emptyTechnicals(), arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, 1, llm.calls)

	// Same day key is overwritten, not duplicated
	require.Len(t, cache.entries, 1)
	assert.Equal(t, "Crypto breaking down", cache.entries[dayKey].Data[0].Headline)
}

func TestSynthesize_ForceBypassesReadNotWrite(t *testing.T) {
	cache := newFakeSignalCache()
	now := time.Now()
	dayKey := common.DayKey(now, "America/New_York")
	cache.entries[dayKey] = &models.SignalCacheEntry{
		Key:         dayKey,
		Data:        []models.Signal{{Type: "divergence", Severity: models.SeverityHigh, Headline: "cached"}},
		GeneratedAt: now.Add(-time.Hour),
	}

	llm := &fakeLLM{response: validSignalResponse}
	engine := NewEngine(signalsConfig(), llm, &fakeAnalysisStorage{analyses: oneAnalysis()}, cache, emptyTechnicals(), arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), true)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, 1, cache.putCalls, "forced synthesis still writes the cache")
	assert.Equal(t, "Crypto breaking down", cache.entries[dayKey].Data[0].Headline)
}

func TestSynthesize_ParseFailureYieldsEmptySignals(t *testing.T) {
	cache := newFakeSignalCache()
	llm := &fakeLLM{response: "I could not produce a structured answer today."}
	engine := NewEngine(signalsConfig(), llm, &fakeAnalysisStorage{analyses: oneAnalysis()}, cache, emptyTechnicals(), arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), false)
	require.NoError(t, err)

	assert.NotNil(t, result.Signals)
	assert.Empty(t, result.Signals)
	assert.Equal(t, 1, cache.putCalls, "empty set is still cached for the day")
}

func TestSynthesize_CacheWriteFailureNonFatal(t *testing.T) {
	cache := newFakeSignalCache()
	cache.putErr = fmt.Errorf("disk full")

	llm := &fakeLLM{response: validSignalResponse}
	engine := NewEngine(signalsConfig(), llm, &fakeAnalysisStorage{analyses: oneAnalysis()}, cache, emptyTechnicals(), arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, result.Signals, 2)
}

func TestSynthesize_NoInputsSkipsSynthesis(t *testing.T) {
	cache := newFakeSignalCache()
	llm := &fakeLLM{response: validSignalResponse}
	engine := NewEngine(signalsConfig(), llm, &fakeAnalysisStorage{}, cache, emptyTechnicals(), arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), false)
	require.NoError(t, err)

	assert.Empty(t, result.Signals)
	assert.Zero(t, llm.calls, "empty dataset never reaches the oracle")
}

func TestParseSignals_DropsInvalidAndNormalizesAssets(t *testing.T) {
	response := `[
  {"type": "divergence", "severity": "high", "headline": "Crypto breaking down", "assets": ["NYSE:BRK-B", "btc-usd"]},
  {"type": "broken", "severity": "extreme", "headline": "bad severity"},
  {"type": "broken2", "severity": "low", "headline": ""}
]`

	signals, err := parseSignals(response)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, []string{"BRK-B", "BTC-USD"}, signals[0].Assets)
}

func TestParseSignals_NoArrayIsError(t *testing.T) {
	_, err := parseSignals("no structured content here")
	assert.Error(t, err)
}
