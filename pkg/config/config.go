// Package config loads resumeqa configuration from a YAML file and
// RESUMEQA_* environment variables via viper. Every retrieval and generation
// tunable lives here so deployments can adjust thresholds without code
// changes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "RESUMEQA"

// Config is the root configuration for the resumeqa system.
type Config struct {
	Owner     OwnerConfig     `mapstructure:"owner"`
	Server    ServerConfig    `mapstructure:"server"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Events    EventsConfig    `mapstructure:"events"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// OwnerConfig identifies the person the resume corpus belongs to.
type OwnerConfig struct {
	Name string `mapstructure:"name"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Listen      string `mapstructure:"listen"`
	MCPListen   string `mapstructure:"mcp_listen"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

// RetrievalConfig holds the hybrid search tunables.
type RetrievalConfig struct {
	TopK          int     `mapstructure:"top_k"`
	MinSimilarity float64 `mapstructure:"min_similarity"`
	ContextSize   int     `mapstructure:"context_size"`
	KeywordLimit  int     `mapstructure:"keyword_limit"`
}

// VectorConfig selects and configures the vector store backend.
type VectorConfig struct {
	// Provider is "pgvector" or "sqlitevec".
	Provider string `mapstructure:"provider"`

	// DatabaseURL is the Postgres connection string for pgvector.
	DatabaseURL string `mapstructure:"database_url"`

	// SQLitePath is the database path for sqlitevec. ":memory:" works.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions uint   `mapstructure:"dimensions"`
}

// ProvidersConfig configures the generation fallback chain.
type ProvidersConfig struct {
	// Order is the static fallback priority, e.g. ["ollama", "openai", "gemini"].
	Order []string `mapstructure:"order"`

	Ollama OllamaConfig `mapstructure:"ollama"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// OllamaConfig configures the local Ollama generation backend.
type OllamaConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig configures an OpenAI-compatible generation backend.
type OpenAIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GeminiConfig configures the Gemini generation backend.
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// EventsConfig configures the observability event sink.
type EventsConfig struct {
	// Provider is "nop" or "kafka".
	Provider string   `mapstructure:"provider"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
}

// NotifyConfig configures email alerts for resume download requests.
type NotifyConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	Sender       string `mapstructure:"sender"`
	Recipient    string `mapstructure:"recipient"`
}

// RateLimitConfig configures the per-IP token bucket on /ask.
type RateLimitConfig struct {
	Rate  int `mapstructure:"rate"`
	Burst int `mapstructure:"burst"`
}

// NewDefaultConfig returns a Config populated with the defaults applied by
// Load when a key is absent.
func NewDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from the given file path (optional) plus the
// environment, and unmarshals it over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Retrieval.TopK <= 0 {
		return errors.New("retrieval.top_k must be positive")
	}
	if c.Retrieval.ContextSize <= 0 {
		return errors.New("retrieval.context_size must be positive")
	}
	if c.Retrieval.MinSimilarity < -1 || c.Retrieval.MinSimilarity > 1 {
		return errors.New("retrieval.min_similarity must be within [-1, 1]")
	}
	if len(c.Providers.Order) == 0 {
		return errors.New("providers.order must name at least one provider")
	}
	for _, name := range c.Providers.Order {
		switch name {
		case "ollama", "openai", "gemini":
		default:
			return fmt.Errorf("unknown provider %q in providers.order", name)
		}
	}
	switch c.Vector.Provider {
	case "pgvector", "sqlitevec":
	default:
		return fmt.Errorf("unknown vector provider %q", c.Vector.Provider)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("owner.name", "Sahil")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.mcp_listen", "")
	v.SetDefault("server.cors_origins", "*")

	v.SetDefault("retrieval.top_k", 12)
	v.SetDefault("retrieval.min_similarity", 0.22)
	v.SetDefault("retrieval.context_size", 5)
	v.SetDefault("retrieval.keyword_limit", 3)

	v.SetDefault("vector.provider", "pgvector")
	v.SetDefault("vector.database_url", "")
	v.SetDefault("vector.sqlite_path", "")

	v.SetDefault("embedding.base_url", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimensions", 768)

	v.SetDefault("providers.order", []string{"ollama", "openai", "gemini"})
	v.SetDefault("providers.ollama.base_url", "http://localhost:11434")
	v.SetDefault("providers.ollama.model", "llama3.2")
	v.SetDefault("providers.ollama.timeout", 30*time.Second)
	v.SetDefault("providers.openai.base_url", "https://api.openai.com")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.timeout", 120*time.Second)
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("providers.gemini.timeout", 120*time.Second)

	v.SetDefault("events.provider", "nop")
	v.SetDefault("events.topic", "resumeqa.query.answered")

	v.SetDefault("ratelimit.rate", 1)
	v.SetDefault("ratelimit.burst", 5)
}
