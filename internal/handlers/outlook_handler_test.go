package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// stubOutlookStorage is a map-backed outlook store for handler tests.
type stubOutlookStorage struct {
	outlooks map[string]*models.Outlook
	history  []*models.OutlookHistoryEntry
}

func newStubOutlookStorage() *stubOutlookStorage {
	return &stubOutlookStorage{outlooks: make(map[string]*models.Outlook)}
}

func (s *stubOutlookStorage) GetOutlook(ctx context.Context, horizon models.Horizon, domain string) (*models.Outlook, error) {
	if o, ok := s.outlooks[models.OutlookKey(horizon, domain)]; ok {
		return o, nil
	}
	return nil, interfaces.ErrNotFound
}

func (s *stubOutlookStorage) ListOutlooks(ctx context.Context) ([]*models.Outlook, error) {
	var out []*models.Outlook
	for _, o := range s.outlooks {
		out = append(out, o)
	}
	return out, nil
}

func (s *stubOutlookStorage) UpsertOutlook(ctx context.Context, outlook *models.Outlook) error {
	s.outlooks[outlook.Key] = outlook
	return nil
}

func (s *stubOutlookStorage) AppendHistory(ctx context.Context, entry *models.OutlookHistoryEntry) error {
	s.history = append(s.history, entry)
	return nil
}

func (s *stubOutlookStorage) ListHistory(ctx context.Context, horizon models.Horizon, changedOnly bool, limit int) ([]*models.OutlookHistoryEntry, error) {
	return s.history, nil
}

func newOutlookTestHandler(storage *stubOutlookStorage) *OutlookHandler {
	return NewOutlookHandler(storage, models.DefaultDomain, arbor.NewLogger())
}

func TestOutlookListHandler_EmptyStore(t *testing.T) {
	handler := newOutlookTestHandler(newStubOutlookStorage())

	req := httptest.NewRequest("GET", "/api/outlook", nil)
	w := httptest.NewRecorder()
	handler.ListHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string][]models.Outlook
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	outlooks, ok := body["outlooks"]
	require.True(t, ok)
	assert.Empty(t, outlooks, "empty store yields an empty collection, not null")
}

func TestOutlookHorizonHandler_GetNotSeeded(t *testing.T) {
	handler := newOutlookTestHandler(newStubOutlookStorage())

	req := httptest.NewRequest("GET", "/api/outlook/short", nil)
	w := httptest.NewRecorder()
	handler.HorizonHandler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOutlookHorizonHandler_InvalidHorizon(t *testing.T) {
	handler := newOutlookTestHandler(newStubOutlookStorage())

	req := httptest.NewRequest("GET", "/api/outlook/weekly", nil)
	w := httptest.NewRecorder()
	handler.HorizonHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutlookHorizonHandler_SeedThenGet(t *testing.T) {
	storage := newStubOutlookStorage()
	handler := newOutlookTestHandler(storage)

	seed := `{
		"time_horizon": "long",
		"domain": "ignored",
		"thesis_intro": "Liquidity is draining.",
		"key_themes": ["Liquidity"],
		"sentiment": "bearish",
		"confidence": 72
	}`
	req := httptest.NewRequest("PUT", "/api/outlook/short", strings.NewReader(seed))
	w := httptest.NewRecorder()
	handler.HorizonHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// Key fields come from the route, not the body
	stored := storage.outlooks[models.OutlookKey(models.HorizonShort, models.DefaultDomain)]
	require.NotNil(t, stored)
	assert.Equal(t, models.HorizonShort, stored.TimeHorizon)
	assert.Equal(t, models.DefaultDomain, stored.Domain)
	assert.False(t, stored.LastUpdated.IsZero())

	getReq := httptest.NewRequest("GET", "/api/outlook/short", nil)
	getW := httptest.NewRecorder()
	handler.HorizonHandler(getW, getReq)

	assert.Equal(t, http.StatusOK, getW.Code)
	var got models.Outlook
	require.NoError(t, json.NewDecoder(getW.Body).Decode(&got))
	assert.Equal(t, models.OutlookBearish, got.Sentiment)
	assert.Equal(t, 72, got.Confidence)
}

func TestOutlookHorizonHandler_SeedRejectsBadSentiment(t *testing.T) {
	handler := newOutlookTestHandler(newStubOutlookStorage())

	req := httptest.NewRequest("PUT", "/api/outlook/short", strings.NewReader(`{"sentiment": "euphoric", "confidence": 50}`))
	w := httptest.NewRecorder()
	handler.HorizonHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutlookHorizonHandler_SeedRejectsConfidenceOutOfRange(t *testing.T) {
	handler := newOutlookTestHandler(newStubOutlookStorage())

	req := httptest.NewRequest("PUT", "/api/outlook/short", strings.NewReader(`{"sentiment": "neutral", "confidence": 101}`))
	w := httptest.NewRecorder()
	handler.HorizonHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutlookHistoryHandler_MethodGate(t *testing.T) {
	handler := newOutlookTestHandler(newStubOutlookStorage())

	req := httptest.NewRequest("POST", "/api/outlook/history", nil)
	w := httptest.NewRecorder()
	handler.HistoryHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
