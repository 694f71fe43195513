package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	LLM         LLMConfig        `toml:"llm"`
	Market      MarketConfig     `toml:"market"`
	Analysis    AnalysisConfig   `toml:"analysis"`
	Outlook     OutlookConfig    `toml:"outlook"`
	Signals     SignalsConfig    `toml:"signals"`
	Technicals  TechnicalsConfig `toml:"technicals"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// LLMConfig configures the reasoning capability used by the revision and
// synthesis engines. Provider selects the implementation.
type LLMConfig struct {
	Provider        string  `toml:"provider"`          // "claude" (default) or "gemini"
	Model           string  `toml:"model"`             // Provider model name (defaulted per provider)
	AnthropicAPIKey string  `toml:"anthropic_api_key"` // Fallback when VANTAGE_ANTHROPIC_API_KEY unset
	GoogleAPIKey    string  `toml:"google_api_key"`    // Fallback when VANTAGE_GOOGLE_API_KEY unset
	Timeout         string  `toml:"timeout"`           // e.g. "60s"
	Temperature     float32 `toml:"temperature"`
	MaxTokens       int     `toml:"max_tokens"`
}

// MarketConfig configures the market data collaborator.
type MarketConfig struct {
	BaseURL   string `toml:"base_url"`   // Chart API base URL (default public endpoint)
	Timeout   string `toml:"timeout"`    // HTTP timeout (default "30s")
	RateLimit int    `toml:"rate_limit"` // Requests per second (default 5)
}

// AnalysisConfig configures the content analysis adapter.
type AnalysisConfig struct {
	MinContentLength int `toml:"min_content_length"` // Text shorter than this is not analyzed (default 100)
}

// OutlookConfig configures the outlook revision engine.
type OutlookConfig struct {
	Domain string `toml:"domain"` // Outlook domain segment (default "general")
}

// SignalsConfig configures signal synthesis and its day cache.
type SignalsConfig struct {
	MaxAgeHours     int    `toml:"max_age_hours"`    // Cache staleness window (default 24)
	Timezone        string `toml:"timezone"`         // Day-key reference timezone (default "America/New_York")
	Schedule        string `toml:"schedule"`         // Cron expression for scheduled synthesis (default "0 7 * * *")
	ScheduleEnabled bool   `toml:"schedule_enabled"` // Enable the daily synthesis job
	MinSignals      int    `toml:"min_signals"`      // Lower bound requested from the oracle (default 6)
	MaxSignals      int    `toml:"max_signals"`      // Upper bound requested from the oracle (default 10)
}

// TechnicalsConfig configures the technical snapshot provider.
type TechnicalsConfig struct {
	Tickers     []TickerConfig `toml:"tickers"`      // Fixed universe of tracked instruments
	BatchSize   int            `toml:"batch_size"`   // Concurrent fetches per batch (default 5)
	DailyRange  string         `toml:"daily_range"`  // Range for the daily series (default "10y")
	WeeklyRange string         `toml:"weekly_range"` // Range for the weekly series (default "10y")
}

// TickerConfig names one tracked instrument.
type TickerConfig struct {
	Symbol string `toml:"symbol"`
	Name   string `toml:"name"`
}

// NewDefaultConfig returns a Config populated with defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/vantage",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		LLM: LLMConfig{
			Provider:    "claude",
			Timeout:     "90s",
			Temperature: 0.3,
			MaxTokens:   8192,
		},
		Market: MarketConfig{
			Timeout:   "30s",
			RateLimit: 5,
		},
		Analysis: AnalysisConfig{
			MinContentLength: 100,
		},
		Outlook: OutlookConfig{
			Domain: "general",
		},
		Signals: SignalsConfig{
			MaxAgeHours:     24,
			Timezone:        "America/New_York",
			Schedule:        "0 7 * * *",
			ScheduleEnabled: false,
			MinSignals:      6,
			MaxSignals:      10,
		},
		Technicals: TechnicalsConfig{
			Tickers: []TickerConfig{
				{Symbol: "SPY", Name: "S&P 500"},
				{Symbol: "QQQ", Name: "Nasdaq 100"},
				{Symbol: "GLD", Name: "Gold"},
				{Symbol: "BTC-USD", Name: "Bitcoin"},
				{Symbol: "TLT", Name: "20Y+ Treasuries"},
			},
			BatchSize:   5,
			DailyRange:  "10y",
			WeeklyRange: "10y",
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each TOML file in
// order (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies VANTAGE_* environment variables over file config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VANTAGE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("VANTAGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VANTAGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("VANTAGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("VANTAGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VANTAGE_LOG_OUTPUT"); output != "" {
		parts := strings.Split(output, ",")
		outputs := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				outputs = append(outputs, p)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if provider := os.Getenv("VANTAGE_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if model := os.Getenv("VANTAGE_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if apiKey := os.Getenv("VANTAGE_ANTHROPIC_API_KEY"); apiKey != "" {
		config.LLM.AnthropicAPIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && config.LLM.AnthropicAPIKey == "" {
		config.LLM.AnthropicAPIKey = apiKey
	}
	if apiKey := os.Getenv("VANTAGE_GOOGLE_API_KEY"); apiKey != "" {
		config.LLM.GoogleAPIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" && config.LLM.GoogleAPIKey == "" {
		config.LLM.GoogleAPIKey = apiKey
	}

	if baseURL := os.Getenv("VANTAGE_MARKET_BASE_URL"); baseURL != "" {
		config.Market.BaseURL = baseURL
	}

	if tz := os.Getenv("VANTAGE_SIGNALS_TIMEZONE"); tz != "" {
		config.Signals.Timezone = tz
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority).
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks configuration invariants that must hold at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Badger.Path == "" {
		return fmt.Errorf("storage.badger.path is required")
	}
	switch c.LLM.Provider {
	case "claude", "gemini":
	default:
		return fmt.Errorf("invalid llm provider '%s': must be 'claude' or 'gemini'", c.LLM.Provider)
	}
	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm timeout '%s': %w", c.LLM.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Market.Timeout); err != nil {
		return fmt.Errorf("invalid market timeout '%s': %w", c.Market.Timeout, err)
	}
	if c.Signals.MaxAgeHours <= 0 {
		return fmt.Errorf("signals.max_age_hours must be positive, got %d", c.Signals.MaxAgeHours)
	}
	if _, err := time.LoadLocation(c.Signals.Timezone); err != nil {
		return fmt.Errorf("invalid signals timezone '%s': %w", c.Signals.Timezone, err)
	}
	if c.Technicals.BatchSize <= 0 {
		return fmt.Errorf("technicals.batch_size must be positive, got %d", c.Technicals.BatchSize)
	}
	return nil
}

// SignalMaxAge returns the cache staleness window as a duration.
func (c *Config) SignalMaxAge() time.Duration {
	return time.Duration(c.Signals.MaxAgeHours) * time.Hour
}
