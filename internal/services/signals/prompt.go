package signals

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/models"
)

const synthesisSystemPrompt = `You are a market strategist reconciling commentary from multiple tracked sources with live market technicals.

CRITICAL RULES:
1. Every signal must connect at least two underlying data points (e.g. a prediction plus a technical reading, or two sources agreeing).
2. Surface disagreements between sources as signals in their own right.
3. Rank by severity: "high" means actionable now, "low" means worth watching.
4. Never invent data. If the inputs are thin, return fewer signals.

OUTPUT FORMAT: Respond with a single JSON array only. No markdown, no explanations outside the JSON.`

// buildSynthesisPrompt serializes the joined dataset for the synthesis call.
func buildSynthesisPrompt(config *common.SignalsConfig, analyses []*models.ContentAnalysis, predictions []*models.Prediction, snapshots []models.TechnicalSnapshot) string {
	var sb strings.Builder

	sb.WriteString("SOURCE ANALYSES:\n")
	for _, a := range analyses {
		item := map[string]interface{}{
			"source":          a.SourceName,
			"sentiment":       a.SentimentOverall,
			"sentiment_score": a.SentimentScore,
			"themes":          a.Themes,
			"assets":          a.AssetsMentioned,
			"summary":         a.Summary,
			"created_at":      a.CreatedAt.Format("2006-01-02"),
		}
		line, _ := json.Marshal(item)
		sb.Write(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\nSTANDING PREDICTIONS:\n")
	for _, p := range predictions {
		item := map[string]interface{}{
			"claim":      p.Claim,
			"source":     p.SourceName,
			"sentiment":  p.Sentiment,
			"horizon":    p.TimeHorizon,
			"confidence": p.Confidence,
			"assets":     p.AssetsMentioned,
			"date_made":  p.DateMade.Format("2006-01-02"),
		}
		line, _ := json.Marshal(item)
		sb.Write(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\nCURRENT TECHNICALS:\n")
	for _, t := range snapshots {
		item := map[string]interface{}{
			"ticker": t.Ticker,
			"price":  t.CurrentPrice,
		}
		if t.DeviationFromMA200D != nil {
			item["deviation_200d_pct"] = *t.DeviationFromMA200D
		}
		if t.MaxDeviation200D != nil && t.MinDeviation200D != nil {
			item["deviation_200d_bounds"] = []float64{*t.MinDeviation200D, *t.MaxDeviation200D}
		}
		if t.DeviationFromMA200W != nil {
			item["deviation_200w_pct"] = *t.DeviationFromMA200W
		}
		line, _ := json.Marshal(item)
		sb.Write(line)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf(`
Synthesize %d-%d signals from the data above. Respond with this JSON shape:
[
  {
    "type": "short label, e.g. divergence, consensus, extreme",
    "severity": "high|medium|low",
    "headline": "one sentence",
    "detail": "2-3 sentences citing the underlying data points",
    "assets": ["tickers involved"],
    "color": "red|yellow|green|blue"
  }
]
Order the array by severity, highest first.`, config.MinSignals, config.MaxSignals))

	return sb.String()
}
