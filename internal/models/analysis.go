package models

import (
	"strings"
	"time"
)

// Sentiment classifies the overall tone of a piece of analyzed content.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
	SentimentMixed   Sentiment = "mixed"
)

// Horizon is the forward-looking time window a prediction or outlook applies to.
type Horizon string

const (
	HorizonShort       Horizon = "short"
	HorizonMedium      Horizon = "medium"
	HorizonLong        Horizon = "long"
	HorizonUnspecified Horizon = "unspecified"
)

// OutlookHorizons is the fixed set of horizons that carry a standing outlook.
// HorizonUnspecified is valid on predictions but never has an outlook row.
var OutlookHorizons = []Horizon{HorizonShort, HorizonMedium, HorizonLong}

// Confidence buckets a prediction's stated conviction.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Specificity grades how concrete a prediction's claim is.
type Specificity string

const (
	SpecificityPrecise Specificity = "precise"
	SpecificityGeneral Specificity = "general"
	SpecificityVague   Specificity = "vague"
)

// ContentAnalysis is the structured result of running one piece of content
// through the reasoning service. Immutable once created.
type ContentAnalysis struct {
	ID               string    `json:"id" badgerhold:"key"`
	SourceName       string    `json:"source_name"`
	ContentID        string    `json:"content_id"`
	SentimentOverall Sentiment `json:"sentiment_overall"`
	SentimentScore   float64   `json:"sentiment_score"` // -1..1
	AssetsMentioned  []string  `json:"assets_mentioned"`
	Themes           []string  `json:"themes"`
	Summary          string    `json:"summary"`
	Predictions      []string  `json:"predictions"` // raw claim texts, in extraction order
	CreatedAt        time.Time `json:"created_at"`
}

// HasTheme reports whether the analysis recorded the given theme.
func (a *ContentAnalysis) HasTheme(theme string) bool {
	return containsFold(a.Themes, theme)
}

// HasAsset reports whether the analysis recorded the given asset.
func (a *ContentAnalysis) HasAsset(asset string) bool {
	return containsFold(a.AssetsMentioned, asset)
}

// Prediction is a discrete forward-looking claim extracted during analysis.
// Mutable only by the consistency-repair pass.
type Prediction struct {
	ID              string      `json:"id" badgerhold:"key"`
	AnalysisID      string      `json:"analysis_id"`
	Claim           string      `json:"claim"`
	Themes          []string    `json:"themes"`
	AssetsMentioned []string    `json:"assets_mentioned"`
	Sentiment       Sentiment   `json:"sentiment"`
	TimeHorizon     Horizon     `json:"time_horizon"`
	Confidence      Confidence  `json:"confidence"`
	Specificity     Specificity `json:"specificity"`
	SourceName      string      `json:"source_name"`
	ContentID       string      `json:"content_id"`
	DateMade        time.Time   `json:"date_made"`
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
