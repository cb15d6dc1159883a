package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Search strategy values accepted by SearchConfig.Strategy
const (
	StrategyIntelligent = "intelligent"
	StrategyTavilyOnly  = "tavily_only"
	StrategySerpOnly    = "serp_only"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `json:"server"`
	LLM     LLMConfig     `json:"llm"`
	Search  SearchConfig  `json:"search"`
	Gmail   GmailConfig   `json:"gmail"`
	History HistoryConfig `json:"history"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `json:"port"`
}

// LLMConfig holds configuration for the LLM backend used for summarization
// and email drafting
type LLMConfig struct {
	Provider       string        `json:"provider"` // "ollama" or "openai"
	Endpoint       string        `json:"endpoint"`
	Model          string        `json:"model"`
	APIKey         string        `json:"api_key"`
	MaxTokens      int           `json:"max_tokens"`
	Temperature    float64       `json:"temperature"`
	TimeoutSeconds time.Duration `json:"timeout_seconds"`
}

// SearchConfig holds configuration for the search providers and the
// fallback strategy
type SearchConfig struct {
	Strategy       string        `json:"strategy"` // "intelligent", "tavily_only" or "serp_only"
	TavilyAPIKey   string        `json:"tavily_api_key"`
	SerpAPIKey     string        `json:"serp_api_key"`
	MaxResults     int           `json:"max_results"`
	TimeoutSeconds time.Duration `json:"timeout_seconds"`

	// Tavily-specific options
	Depth          string   `json:"depth"` // "basic" or "advanced"
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeDomains []string `json:"include_domains"`
	ExcludeDomains []string `json:"exclude_domains"`

	// SerpAPI-specific options
	Country    string `json:"country"`
	Language   string `json:"language"`
	SafeSearch string `json:"safe_search"`
	TimePeriod string `json:"time_period"` // "hour", "day", "week", "month", "year" or empty

	// Outbound request rate limiting per provider client
	RatePerSecond float64 `json:"rate_per_second"`
	RateBurst     int     `json:"rate_burst"`
}

// GmailConfig holds configuration for Gmail draft creation.
// The access token is assumed to be obtained out of band.
type GmailConfig struct {
	Enabled        bool          `json:"enabled"`
	AccessToken    string        `json:"access_token"`
	Endpoint       string        `json:"endpoint"`
	TimeoutSeconds time.Duration `json:"timeout_seconds"`
}

// HistoryConfig holds configuration for the research run history store
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoadConfig loads configuration from a JSON file, applying defaults for
// missing sections and environment overrides for credentials
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	config.ApplyEnvOverrides()
	return config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			Endpoint:       "http://localhost:11434",
			Model:          "qwen3:14b",
			MaxTokens:      4096,
			Temperature:    0.2,
			TimeoutSeconds: 100,
		},
		Search: SearchConfig{
			Strategy:       StrategyIntelligent,
			MaxResults:     10,
			TimeoutSeconds: 30,
			Depth:          "advanced",
			IncludeAnswer:  true,
			Country:        "us",
			Language:       "en",
			SafeSearch:     "off",
			RatePerSecond:  1,
			RateBurst:      3,
		},
		Gmail: GmailConfig{
			Enabled:        false,
			Endpoint:       "https://gmail.googleapis.com/gmail/v1",
			TimeoutSeconds: 30,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./data/history.db",
		},
	}
}

// ApplyEnvOverrides lets environment variables take precedence for secrets
// so config files can be committed without credentials
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Search.TavilyAPIKey = v
	}
	if v := os.Getenv("SERP_API_KEY"); v != "" {
		c.Search.SerpAPIKey = v
	}
	if v := os.Getenv("GMAIL_ACCESS_TOKEN"); v != "" {
		c.Gmail.AccessToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("SEARCH_STRATEGY"); v != "" {
		c.Search.Strategy = v
	}
}

// Validate checks that the configured search strategy has the credentials
// it needs, naming the missing credential in the error
func (c *Config) Validate() error {
	switch c.Search.Strategy {
	case StrategyTavilyOnly:
		if c.Search.TavilyAPIKey == "" {
			return fmt.Errorf("TAVILY_API_KEY is required for the %s search strategy", StrategyTavilyOnly)
		}
	case StrategySerpOnly:
		if c.Search.SerpAPIKey == "" {
			return fmt.Errorf("SERP_API_KEY is required for the %s search strategy", StrategySerpOnly)
		}
	case StrategyIntelligent:
		if c.Search.TavilyAPIKey == "" && c.Search.SerpAPIKey == "" {
			return fmt.Errorf("at least one of TAVILY_API_KEY or SERP_API_KEY is required for the %s search strategy", StrategyIntelligent)
		}
	default:
		return fmt.Errorf("unknown search strategy %q", c.Search.Strategy)
	}

	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when using the openai LLM provider")
	}
	return nil
}
