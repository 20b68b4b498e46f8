// Package config holds the process-wide configuration, loaded once at
// startup from environment variables. There is no hot-reload.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process-wide configuration shared by the CLI and the
// webhook server.
type Config struct {
	// LLM provider selection and credentials.
	Provider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	Model        string `env:"LLM_MODEL" envDefault:"o3-mini"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	AnthropicKey string `env:"CLAUDE_API_KEY"`

	// GitHub integration.
	GitHubToken   string `env:"GITHUB_TOKEN"`
	WebhookSecret string `env:"GITHUB_WEBHOOK_SECRET"`

	// Webhook server bind address.
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`

	// Directory where reports and PR analyses are written.
	ResultsDir string `env:"RESULTS_DIR" envDefault:"results"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// APIKey returns the credential for the preferred provider, falling back
// to whichever key is set when the preferred one is missing. An empty
// preferred provider uses the configured one.
func (c *Config) APIKey(preferred string) (provider, key string, err error) {
	if preferred == "" {
		preferred = c.Provider
	}
	switch preferred {
	case "anthropic", "claude":
		if c.AnthropicKey != "" {
			return "anthropic", c.AnthropicKey, nil
		}
		if c.OpenAIKey != "" {
			return "openai", c.OpenAIKey, nil
		}
	default:
		if c.OpenAIKey != "" {
			return "openai", c.OpenAIKey, nil
		}
		if c.AnthropicKey != "" {
			return "anthropic", c.AnthropicKey, nil
		}
	}
	return "", "", fmt.Errorf("no API key found: set OPENAI_API_KEY or CLAUDE_API_KEY")
}
