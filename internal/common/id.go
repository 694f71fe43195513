package common

import (
	"github.com/google/uuid"
)

// NewAnalysisID generates a unique content analysis ID.
// Format: analysis_<uuid>
func NewAnalysisID() string {
	return "analysis_" + uuid.New().String()
}

// NewPredictionID generates a unique prediction ID.
// Format: pred_<uuid>
func NewPredictionID() string {
	return "pred_" + uuid.New().String()
}

// NewHistoryID generates a unique outlook history entry ID.
// Format: hist_<uuid>
func NewHistoryID() string {
	return "hist_" + uuid.New().String()
}

// NewContentID generates a unique raw content ID.
// Format: content_<uuid>
func NewContentID() string {
	return "content_" + uuid.New().String()
}
