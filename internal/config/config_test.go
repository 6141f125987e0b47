package config

import (
	"testing"
	"time"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.RiskThreshold() != types.RiskMedium {
		t.Errorf("expected default risk threshold medium, got %s", cfg.RiskThreshold())
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("KEEPSAKE_CONSENT_RISK_THRESHOLD", "high")
	t.Setenv("KEEPSAKE_SHORT_TERM_MAX_PER_USER", "5")
	t.Setenv("KEEPSAKE_CONSENT_PENDING_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RiskThreshold() != types.RiskHigh {
		t.Errorf("expected high threshold, got %s", cfg.RiskThreshold())
	}
	if cfg.ShortTerm.MaxPerUser != 5 {
		t.Errorf("expected MaxPerUser 5, got %d", cfg.ShortTerm.MaxPerUser)
	}
	if cfg.Consent.PendingTTL != time.Hour {
		t.Errorf("expected 1h pending TTL, got %v", cfg.Consent.PendingTTL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad risk threshold", func(c *Config) { c.Consent.RiskThreshold = "extreme" }},
		{"zero max per user", func(c *Config) { c.ShortTerm.MaxPerUser = 0 }},
		{"negative ttl", func(c *Config) { c.ShortTerm.TTL = -time.Hour }},
		{"zero retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"zero resolved retention", func(c *Config) { c.Consent.ResolvedRetention = 0 }},
		{"unknown short-term backend", func(c *Config) { c.ShortTerm.Backend = "redis" }},
		{"unknown long-term backend", func(c *Config) { c.LongTerm.Backend = "weaviate" }},
		{"postgres without dsn", func(c *Config) { c.LongTerm.Backend = "postgres" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
