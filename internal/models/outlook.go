package models

import (
	"strings"
	"time"
)

// OutlookSentiment classifies the standing market view for a horizon.
// Distinct from content Sentiment: outlooks use "cautious" rather than "mixed".
type OutlookSentiment string

const (
	OutlookBullish  OutlookSentiment = "bullish"
	OutlookBearish  OutlookSentiment = "bearish"
	OutlookCautious OutlookSentiment = "cautious"
	OutlookNeutral  OutlookSentiment = "neutral"
)

// DefaultDomain is the only outlook domain in use today. The field exists so
// outlooks can later be segmented (e.g. per asset class) without a schema change.
const DefaultDomain = "general"

// ThesisPoint is one structured argument within an outlook's thesis.
type ThesisPoint struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// SupportingSource records how much weight a tracked source carries in an outlook.
type SupportingSource struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Outlook is the persisted thesis document for one (horizon, domain) pair.
// Exactly one live row exists per pair; all mutations are sparse patches
// applied via ApplyRevision.
type Outlook struct {
	Key               string             `json:"key" badgerhold:"key"` // "<horizon>:<domain>"
	TimeHorizon       Horizon            `json:"time_horizon"`
	Domain            string             `json:"domain"`
	Title             string             `json:"title"`
	Subtitle          string             `json:"subtitle"`
	ThesisIntro       string             `json:"thesis_intro"`
	ThesisPoints      []ThesisPoint      `json:"thesis_points"`
	Positioning       []string           `json:"positioning"`
	KeyThemes         []string           `json:"key_themes"`
	Sentiment         OutlookSentiment   `json:"sentiment"`
	Confidence        int                `json:"confidence"` // 0-100
	SupportingSources []SupportingSource `json:"supporting_sources"`
	LastUpdated       time.Time          `json:"last_updated"`
}

// OutlookKey builds the storage key for a (horizon, domain) pair.
func OutlookKey(horizon Horizon, domain string) string {
	if domain == "" {
		domain = DefaultDomain
	}
	return string(horizon) + ":" + domain
}

// RevisionDecision is the structured answer the reasoning service returns when
// asked whether new evidence warrants revising an outlook. Every updated_*
// field is optional: nil means "leave the current value untouched".
type RevisionDecision struct {
	ShouldUpdate       bool              `json:"should_update"`
	Reasoning          string            `json:"reasoning" validate:"required"`
	UpdatedThesisIntro *string           `json:"updated_thesis_intro,omitempty"`
	UpdatedThesisPoints *[]ThesisPoint   `json:"updated_thesis_points,omitempty"`
	UpdatedPositioning *[]string         `json:"updated_positioning,omitempty"`
	UpdatedSentiment   *OutlookSentiment `json:"updated_sentiment,omitempty" validate:"omitempty,oneof=bullish bearish cautious neutral"`
	UpdatedConfidence  *int              `json:"updated_confidence,omitempty" validate:"omitempty,gte=0,lte=100"`
	NewThemes          []string          `json:"new_themes,omitempty"`
}

// ApplyRevision merges a decision into the outlook as a sparse patch and
// returns human-readable descriptions of what changed. Fields absent from the
// decision are left untouched. NewThemes is unioned into KeyThemes rather than
// replacing it, so prior themes are never lost. LastUpdated is always
// refreshed. Callers must only invoke this when decision.ShouldUpdate is true.
func (o *Outlook) ApplyRevision(decision *RevisionDecision, now time.Time) []string {
	var changes []string

	if decision.UpdatedThesisIntro != nil {
		o.ThesisIntro = *decision.UpdatedThesisIntro
		changes = append(changes, "Revised thesis introduction")
	}
	if decision.UpdatedThesisPoints != nil {
		o.ThesisPoints = *decision.UpdatedThesisPoints
		changes = append(changes, "Revised thesis points")
	}
	if decision.UpdatedPositioning != nil {
		o.Positioning = *decision.UpdatedPositioning
		changes = append(changes, "Revised positioning")
	}
	if decision.UpdatedSentiment != nil && *decision.UpdatedSentiment != o.Sentiment {
		changes = append(changes, "Sentiment changed from "+string(o.Sentiment)+" to "+string(*decision.UpdatedSentiment))
		o.Sentiment = *decision.UpdatedSentiment
	}
	if decision.UpdatedConfidence != nil && *decision.UpdatedConfidence != o.Confidence {
		changes = append(changes, "Confidence adjusted")
		o.Confidence = *decision.UpdatedConfidence
	}
	if added := o.mergeThemes(decision.NewThemes); len(added) > 0 {
		changes = append(changes, "Added themes: "+strings.Join(added, ", "))
	}

	o.LastUpdated = now
	return changes
}

// mergeThemes unions new themes into KeyThemes, preserving order and skipping
// case-insensitive duplicates. Returns the themes actually added.
func (o *Outlook) mergeThemes(themes []string) []string {
	var added []string
	for _, theme := range themes {
		if theme == "" || containsFold(o.KeyThemes, theme) {
			continue
		}
		o.KeyThemes = append(o.KeyThemes, theme)
		added = append(added, theme)
	}
	return added
}

// OutlookHistoryEntry is one row of the append-only revision audit log.
// Created exactly once per applied revision, never mutated.
type OutlookHistoryEntry struct {
	ID                  string           `json:"id" badgerhold:"key"`
	OutlookKey          string           `json:"outlook_key"`
	TimeHorizon         Horizon          `json:"time_horizon"`
	PreviousSentiment   OutlookSentiment `json:"previous_sentiment"`
	NewSentiment        OutlookSentiment `json:"new_sentiment"`
	PreviousConfidence  int              `json:"previous_confidence"`
	NewConfidence       int              `json:"new_confidence"`
	ChangesSummary      []string         `json:"changes_summary"`
	EvaluationReasoning string           `json:"evaluation_reasoning"`
	AnalysesEvaluated   int              `json:"analyses_evaluated"`
	CreatedAt           time.Time        `json:"created_at"`
}
