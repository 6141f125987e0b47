// Package config provides configuration management for Keepsake.
// It loads settings from environment variables with the KEEPSAKE_ prefix
// and provides sensible defaults for all configuration options.
//
// The configuration is an explicit struct constructed once at process start
// and injected into the engine and its collaborators; there is no global
// mutable configuration state.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// Config holds all configuration settings for the Keepsake engine.
type Config struct {
	Service   ServiceConfig
	LLM       LLMConfig
	Consent   ConsentConfig
	ShortTerm ShortTermConfig
	LongTerm  LongTermConfig
	Retry     RetryConfig
	Digest    DigestConfig
}

// ServiceConfig contains process-level settings.
type ServiceConfig struct {
	// Name is the service name stamped onto every log line.
	Name string `envconfig:"KEEPSAKE_SERVICE_NAME" default:"keepsake"`

	// LogLevel is the zerolog level: trace, debug, info, warn, error.
	LogLevel string `envconfig:"KEEPSAKE_LOG_LEVEL" default:"info"`

	// ClassifierRulesPath optionally points at a yaml file overriding the
	// default classifier decision table.
	ClassifierRulesPath string `envconfig:"KEEPSAKE_CLASSIFIER_RULES" default:""`
}

// LLMConfig contains capability provider configuration for the scorer and
// the LLM-backed PII detector.
type LLMConfig struct {
	// Provider selects the capability backend: openai, anthropic, ollama, or
	// rules (no LLM; rule-based detector and conservative scorer only).
	Provider string `envconfig:"KEEPSAKE_LLM_PROVIDER" default:"rules"`

	OpenAIAPIKey    string `envconfig:"KEEPSAKE_OPENAI_API_KEY" default:""`
	OpenAIModel     string `envconfig:"KEEPSAKE_OPENAI_MODEL" default:"gpt-4o-mini"`
	AnthropicAPIKey string `envconfig:"KEEPSAKE_ANTHROPIC_API_KEY" default:""`
	AnthropicModel  string `envconfig:"KEEPSAKE_ANTHROPIC_MODEL" default:"claude-3-5-sonnet-20241022"`
	OllamaURL       string `envconfig:"KEEPSAKE_OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel     string `envconfig:"KEEPSAKE_OLLAMA_MODEL" default:"qwen2.5:7b"`

	// EmbeddingModel is used by the postgres long-term tier for semantic
	// queries. Only meaningful for providers that expose embeddings.
	EmbeddingModel string `envconfig:"KEEPSAKE_EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// RequestTimeout bounds each outbound capability call.
	RequestTimeout time.Duration `envconfig:"KEEPSAKE_LLM_TIMEOUT" default:"15s"`

	// RequestsPerSecond rate-limits outbound capability calls; 0 disables
	// the limiter.
	RequestsPerSecond float64 `envconfig:"KEEPSAKE_LLM_RATE" default:"5"`
}

// ConsentConfig controls the consent workflow.
type ConsentConfig struct {
	// RiskThreshold is the minimum risk level that forces the consent
	// workflow: low, medium, or high.
	RiskThreshold string `envconfig:"KEEPSAKE_CONSENT_RISK_THRESHOLD" default:"medium"`

	// PendingTTL is how long an item may stay pending before the sweep
	// command resolves it with the default remove decision.
	PendingTTL time.Duration `envconfig:"KEEPSAKE_CONSENT_PENDING_TTL" default:"72h"`

	// ResolvedRetention is how long a resolved item stays re-resolvable
	// before the sweep prunes its consent record.
	ResolvedRetention time.Duration `envconfig:"KEEPSAKE_CONSENT_RESOLVED_RETENTION" default:"168h"`
}

// ShortTermConfig configures the short-term tier.
type ShortTermConfig struct {
	// Backend selects the implementation: memory or sqlite.
	Backend string `envconfig:"KEEPSAKE_SHORT_TERM_BACKEND" default:"memory"`

	// MaxPerUser bounds the number of items retained per user.
	MaxPerUser int `envconfig:"KEEPSAKE_SHORT_TERM_MAX_PER_USER" default:"200"`

	// TTL expires items out of the short-term tier.
	TTL time.Duration `envconfig:"KEEPSAKE_SHORT_TERM_TTL" default:"168h"`

	// SQLitePath is the database path for the sqlite backend.
	SQLitePath string `envconfig:"KEEPSAKE_SQLITE_PATH" default:"./data/keepsake.db"`
}

// LongTermConfig configures the long-term tier.
type LongTermConfig struct {
	// Backend selects the implementation: memory or postgres.
	Backend string `envconfig:"KEEPSAKE_LONG_TERM_BACKEND" default:"memory"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `envconfig:"KEEPSAKE_POSTGRES_DSN" default:""`
}

// RetryConfig bounds the long-term write retry loop.
type RetryConfig struct {
	// MaxAttempts is the total number of long-term write attempts before the
	// result is surfaced as degraded.
	MaxAttempts int `envconfig:"KEEPSAKE_LONG_TERM_MAX_ATTEMPTS" default:"3"`

	// InitialInterval seeds the exponential backoff between attempts.
	InitialInterval time.Duration `envconfig:"KEEPSAKE_LONG_TERM_BACKOFF" default:"100ms"`
}

// DigestConfig controls retrieval digest assembly.
type DigestConfig struct {
	// TokenBudget caps the digest size in model tokens.
	TokenBudget int `envconfig:"KEEPSAKE_DIGEST_TOKEN_BUDGET" default:"1024"`

	// Encoding is the tiktoken encoding used for counting.
	Encoding string `envconfig:"KEEPSAKE_DIGEST_ENCODING" default:"cl100k_base"`
}

// Load builds a Config from environment variables with the KEEPSAKE_ prefix
// and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field consistency. It is called by Load and again
// by the engine constructor so hand-built configs get the same checks.
func (c *Config) Validate() error {
	if !types.IsValidRiskLevel(types.RiskLevel(c.Consent.RiskThreshold)) {
		return fmt.Errorf("config: invalid consent risk threshold %q", c.Consent.RiskThreshold)
	}
	if c.ShortTerm.MaxPerUser < 1 {
		return fmt.Errorf("config: short-term MaxPerUser must be >= 1, got %d", c.ShortTerm.MaxPerUser)
	}
	if c.ShortTerm.TTL <= 0 {
		return fmt.Errorf("config: short-term TTL must be positive, got %v", c.ShortTerm.TTL)
	}
	if c.Consent.ResolvedRetention <= 0 {
		return fmt.Errorf("config: consent ResolvedRetention must be positive, got %v", c.Consent.ResolvedRetention)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry MaxAttempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Digest.TokenBudget < 0 {
		return fmt.Errorf("config: digest token budget must be >= 0, got %d", c.Digest.TokenBudget)
	}
	switch c.ShortTerm.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config: unsupported short-term backend %q", c.ShortTerm.Backend)
	}
	switch c.LongTerm.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unsupported long-term backend %q", c.LongTerm.Backend)
	}
	if c.LongTerm.Backend == "postgres" && c.LongTerm.PostgresDSN == "" {
		return fmt.Errorf("config: postgres long-term backend requires a DSN")
	}
	return nil
}

// RiskThreshold returns the consent threshold as a typed risk level.
func (c *Config) RiskThreshold() types.RiskLevel {
	return types.RiskLevel(c.Consent.RiskThreshold)
}

// Default returns a Config populated with the same defaults Load would use
// with an empty environment. Used by tests and as a base for hand-built
// configs.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "keepsake", LogLevel: "info"},
		LLM: LLMConfig{
			Provider:          "rules",
			OpenAIModel:       "gpt-4o-mini",
			AnthropicModel:    "claude-3-5-sonnet-20241022",
			OllamaURL:         "http://localhost:11434",
			OllamaModel:       "qwen2.5:7b",
			EmbeddingModel:    "text-embedding-3-small",
			RequestTimeout:    15 * time.Second,
			RequestsPerSecond: 5,
		},
		Consent:   ConsentConfig{RiskThreshold: "medium", PendingTTL: 72 * time.Hour, ResolvedRetention: 168 * time.Hour},
		ShortTerm: ShortTermConfig{Backend: "memory", MaxPerUser: 200, TTL: 168 * time.Hour, SQLitePath: "./data/keepsake.db"},
		LongTerm:  LongTermConfig{Backend: "memory"},
		Retry:     RetryConfig{MaxAttempts: 3, InitialInterval: 100 * time.Millisecond},
		Digest:    DigestConfig{TokenBudget: 1024, Encoding: "cl100k_base"},
	}
}
