package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

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

// memAnalysisStorage is an in-memory analysis store.
type memAnalysisStorage struct {
	analyses    map[string]*models.ContentAnalysis // by content ID
	predictions []*models.Prediction
	savePredErr error
}

func newMemAnalysisStorage() *memAnalysisStorage {
	return &memAnalysisStorage{analyses: make(map[string]*models.ContentAnalysis)}
}

func (m *memAnalysisStorage) SaveAnalysis(ctx context.Context, a *models.ContentAnalysis) error {
	m.analyses[a.ContentID] = a
	return nil
}

func (m *memAnalysisStorage) GetAnalysis(ctx context.Context, id string) (*models.ContentAnalysis, error) {
	for _, a := range m.analyses {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memAnalysisStorage) GetAnalysisByContentID(ctx context.Context, contentID string) (*models.ContentAnalysis, error) {
	if a, ok := m.analyses[contentID]; ok {
		return a, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memAnalysisStorage) ListAnalyses(ctx context.Context, limit int) ([]*models.ContentAnalysis, error) {
	return nil, nil
}

func (m *memAnalysisStorage) SavePrediction(ctx context.Context, p *models.Prediction) error {
	if m.savePredErr != nil {
		return m.savePredErr
	}
	m.predictions = append(m.predictions, p)
	return nil
}

func (m *memAnalysisStorage) UpdatePrediction(ctx context.Context, p *models.Prediction) error {
	return nil
}

func (m *memAnalysisStorage) ListPredictions(ctx context.Context, limit int) ([]*models.Prediction, error) {
	return m.predictions, nil
}

func (m *memAnalysisStorage) ListPredictionsByAnalysis(ctx context.Context, analysisID string) ([]*models.Prediction, error) {
	var out []*models.Prediction
	for _, p := range m.predictions {
		if p.AnalysisID == analysisID {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService(llm *fakeLLM, storage *memAnalysisStorage) *Service {
	return NewService(&common.AnalysisConfig{MinContentLength: 100}, llm, storage, arbor.NewLogger())
}

func longText() string {
	return strings.Repeat("The liquidity picture keeps deteriorating. ", 10)
}

const analysisResponse = `Here is the structured analysis:
{
  "sentiment_overall": "bearish",
  "sentiment_score": -0.7,
  "assets_mentioned": ["NYSE:BRK-B", "btc-usd"],
  "themes": ["Liquidity", "Crypto Breakdown"],
  "summary": "Liquidity is draining and crypto is rolling over.",
  "predictions": [
    {"claim": "BTC revisits 60k within a month", "assets_mentioned": ["BTC-USD"], "sentiment": "bearish", "time_horizon": "short", "confidence": "high", "specificity": "precise"},
    {"claim": "Markets get worse"}
  ]
}`

func TestAnalyze_TooShortGate(t *testing.T) {
	llm := &fakeLLM{response: analysisResponse}
	svc := newTestService(llm, newMemAnalysisStorage())

	_, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Text:       "   short note   ",
		SourceName: "Test Letter",
	})

	assert.ErrorIs(t, err, ErrContentTooShort)
	assert.Zero(t, llm.calls, "gated content never reaches the oracle")
}

func TestAnalyze_PersistsAnalysisAndPredictions(t *testing.T) {
	llm := &fakeLLM{response: analysisResponse}
	storage := newMemAnalysisStorage()
	svc := newTestService(llm, storage)

	analysis, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Title:      "Weekly letter",
		Text:       longText(),
		SourceName: "Test Letter",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.ID)
	assert.Equal(t, "content_1", analysis.ContentID)
	assert.Equal(t, models.SentimentBearish, analysis.SentimentOverall)
	assert.Equal(t, -0.7, analysis.SentimentScore)
	assert.Equal(t, []string{"BRK-B", "BTC-USD"}, analysis.AssetsMentioned)
	assert.Equal(t, []string{"Liquidity", "Crypto Breakdown"}, analysis.Themes)
	assert.Len(t, analysis.Predictions, 2)

	require.Len(t, storage.predictions, 2)
	first := storage.predictions[0]
	assert.Equal(t, analysis.ID, first.AnalysisID)
	assert.Equal(t, "BTC revisits 60k within a month", first.Claim)
	assert.Equal(t, models.HorizonShort, first.TimeHorizon)
	assert.Equal(t, models.ConfidenceHigh, first.Confidence)
	assert.Equal(t, "Test Letter", first.SourceName)
}

func TestAnalyze_FillsConservativeDefaults(t *testing.T) {
	llm := &fakeLLM{response: analysisResponse}
	storage := newMemAnalysisStorage()
	svc := newTestService(llm, storage)

	_, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Text:       longText(),
		SourceName: "Test Letter",
	})
	require.NoError(t, err)

	// Second prediction in the response carries only a claim
	require.Len(t, storage.predictions, 2)
	sparse := storage.predictions[1]
	assert.Equal(t, models.SentimentBearish, sparse.Sentiment, "inherits the overall sentiment")
	assert.Equal(t, models.HorizonUnspecified, sparse.TimeHorizon)
	assert.Equal(t, models.ConfidenceMedium, sparse.Confidence)
	assert.Equal(t, models.SpecificityGeneral, sparse.Specificity)
}

func TestAnalyze_IdempotentPerContentID(t *testing.T) {
	llm := &fakeLLM{response: analysisResponse}
	storage := newMemAnalysisStorage()
	svc := newTestService(llm, storage)

	first, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Text:       longText(),
		SourceName: "Test Letter",
	})
	require.NoError(t, err)

	second, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Text:       longText(),
		SourceName: "Test Letter",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, llm.calls, "re-ingest must not re-analyze")
	assert.Len(t, storage.predictions, 2, "no duplicate predictions")
}

func TestAnalyze_MalformedResponse(t *testing.T) {
	llm := &fakeLLM{response: "I cannot structure this content."}
	storage := newMemAnalysisStorage()
	svc := newTestService(llm, storage)

	_, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Text:       longText(),
		SourceName: "Test Letter",
	})

	assert.Error(t, err)
	assert.Empty(t, storage.analyses, "nothing persisted on a failed analysis")
}

func TestAnalyze_InvalidSentimentRejected(t *testing.T) {
	llm := &fakeLLM{response: `{"sentiment_overall": "euphoric", "summary": "x"}`}
	svc := newTestService(llm, newMemAnalysisStorage())

	_, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Text:       longText(),
		SourceName: "Test Letter",
	})
	assert.Error(t, err)
}

func TestAnalyze_PredictionSaveFailureNonFatal(t *testing.T) {
	llm := &fakeLLM{response: analysisResponse}
	storage := newMemAnalysisStorage()
	storage.savePredErr = fmt.Errorf("disk full")
	svc := newTestService(llm, storage)

	analysis, err := svc.Analyze(context.Background(), Input{
		ContentID:  "content_1",
		Text:       longText(),
		SourceName: "Test Letter",
	})

	require.NoError(t, err, "the analysis itself still lands")
	assert.NotNil(t, storage.analyses["content_1"])
	assert.NotEmpty(t, analysis.ID)
}
