package outlook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/vantage/internal/models"
)

const revisionSystemPrompt = `You are the custodian of a standing market thesis. You decide whether new evidence warrants revising it.

CRITICAL RULES:
1. Revise only when the evidence materially confirms, contradicts, or adds nuance to the thesis at THIS time horizon.
2. Weight the evidence by source credibility. A low-weight source rarely justifies a sentiment change on its own.
3. Only include fields you are actually changing. Omitted fields are kept as they are.
4. new_themes must contain only themes genuinely new to the thesis.

OUTPUT FORMAT: Respond with a single JSON object only. No markdown, no explanations outside the JSON.`

// buildRevisionPrompt serializes the current outlook and the new evidence
// into the revision question for one horizon.
func buildRevisionPrompt(current *models.Outlook, analysis *models.ContentAnalysis, predictions []*models.Prediction) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("TIME HORIZON: %s\n\n", current.TimeHorizon))

	sb.WriteString("CURRENT THESIS:\n")
	outlookJSON, _ := json.MarshalIndent(map[string]interface{}{
		"thesis_intro":  current.ThesisIntro,
		"thesis_points": current.ThesisPoints,
		"positioning":   current.Positioning,
		"key_themes":    current.KeyThemes,
		"sentiment":     current.Sentiment,
		"confidence":    current.Confidence,
		"last_updated":  current.LastUpdated,
	}, "", "  ")
	sb.Write(outlookJSON)

	sb.WriteString("\n\nNEW EVIDENCE:\n")
	evidence := map[string]interface{}{
		"source":            analysis.SourceName,
		"source_weight":     sourceWeight(current, analysis.SourceName),
		"sentiment_overall": analysis.SentimentOverall,
		"sentiment_score":   analysis.SentimentScore,
		"themes":            analysis.Themes,
		"assets_mentioned":  analysis.AssetsMentioned,
		"summary":           analysis.Summary,
	}
	if len(predictions) > 0 {
		claims := make([]string, 0, len(predictions))
		for _, p := range predictions {
			claims = append(claims, fmt.Sprintf("[%s/%s] %s", p.TimeHorizon, p.Confidence, p.Claim))
		}
		evidence["predictions"] = claims
	}
	evidenceJSON, _ := json.MarshalIndent(evidence, "", "  ")
	sb.Write(evidenceJSON)

	sb.WriteString(fmt.Sprintf(`

QUESTIONS:
1. Does this evidence confirm, contradict, or add nuance to the %s-horizon thesis?
2. Given the source's credibility weight, how much should it move the thesis?
3. Is the information actionable at this horizon, or does it belong to another?

Respond with this JSON shape (every updated_* field optional, omit what stays unchanged):
{
  "should_update": true|false,
  "reasoning": "your assessment, always required",
  "updated_thesis_intro": "full replacement text",
  "updated_thesis_points": [{"heading": "...", "content": "..."}],
  "updated_positioning": ["full replacement directives"],
  "updated_sentiment": "bullish|bearish|cautious|neutral",
  "updated_confidence": 0-100,
  "new_themes": ["themes to add"]
}`, current.TimeHorizon))

	return sb.String()
}

// sourceWeight looks up the credibility weight recorded for a source on this
// outlook. Unknown sources carry a neutral default weight.
func sourceWeight(current *models.Outlook, sourceName string) float64 {
	for _, s := range current.SupportingSources {
		if strings.EqualFold(s.Name, sourceName) {
			return s.Weight
		}
	}
	return 0.5
}
