package analysis

import (
	"github.com/go-playground/validator/v10"
)

// analysisSchema is the structured shape the reasoning service must return
// for one piece of content. Validated before anything is persisted.
type analysisSchema struct {
	SentimentOverall string  `json:"sentiment_overall" validate:"required,oneof=bullish bearish neutral mixed"`
	SentimentScore   float64 `json:"sentiment_score" validate:"gte=-1,lte=1"`

	AssetsMentioned []string `json:"assets_mentioned"`
	Themes          []string `json:"themes"`
	Summary         string   `json:"summary" validate:"required"`

	Predictions []predictionSchema `json:"predictions" validate:"dive"`
}

// predictionSchema is one forward-looking claim inside the analysis payload.
// Enum fields are optional: the adapter fills conservative defaults when the
// model omits them.
type predictionSchema struct {
	Claim           string   `json:"claim" validate:"required"`
	Themes          []string `json:"themes"`
	AssetsMentioned []string `json:"assets_mentioned"`
	Sentiment       string   `json:"sentiment" validate:"omitempty,oneof=bullish bearish neutral mixed"`
	TimeHorizon     string   `json:"time_horizon" validate:"omitempty,oneof=short medium long unspecified"`
	Confidence      string   `json:"confidence" validate:"omitempty,oneof=high medium low"`
	Specificity     string   `json:"specificity" validate:"omitempty,oneof=precise general vague"`
}

// Validate validates the schema using go-playground/validator.
func (s *analysisSchema) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
