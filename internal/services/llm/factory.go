package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// the configured provider.
func NewLLMService(config *common.LLMConfig, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", config.Provider).Msg("Initializing LLM service")

	switch config.Provider {
	case "claude", "":
		return NewClaudeService(config, logger)
	case "gemini":
		return NewGeminiService(config, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'claude' or 'gemini'", config.Provider)
	}
}
