package analysis

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a financial content analyst. You read market commentary and extract structured data from it.

OUTPUT FORMAT: Respond with a single JSON object only. No markdown, no explanations outside the JSON.`

// buildPrompt creates the analysis prompt for one piece of content.
func buildPrompt(input Input) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("SOURCE: %s\n", input.SourceName))
	if input.Title != "" {
		sb.WriteString(fmt.Sprintf("TITLE: %s\n", input.Title))
	}
	sb.WriteString("\nCONTENT:\n")
	sb.WriteString(input.Text)

	sb.WriteString(`

Analyze the content above and respond with this JSON shape:
{
  "sentiment_overall": "bullish|bearish|neutral|mixed",
  "sentiment_score": -1.0 to 1.0,
  "assets_mentioned": ["ticker symbols only"],
  "themes": ["short free-text tags"],
  "summary": "2-3 sentence summary of the argument",
  "predictions": [
    {
      "claim": "one discrete forward-looking claim, verbatim where possible",
      "themes": ["subset of the top-level themes"],
      "assets_mentioned": ["subset of the top-level assets"],
      "sentiment": "bullish|bearish|neutral|mixed",
      "time_horizon": "short|medium|long|unspecified",
      "confidence": "high|medium|low",
      "specificity": "precise|general|vague"
    }
  ]
}

RULES:
1. Only include predictions that are genuine forward-looking claims, not restatements of current conditions.
2. Every prediction's themes and assets must be subsets of the top-level themes and assets.
3. Use uppercase ticker symbols for assets. Omit companies with no listed ticker.
4. An empty predictions array is valid when the content makes no claims.`)

	return sb.String()
}
