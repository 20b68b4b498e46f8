package config

import "testing"

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_MODEL", "claude-3-5-haiku-20241022")
	t.Setenv("PORT", "9090")
	t.Setenv("RESULTS_DIR", "/tmp/out")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.ResultsDir != "/tmp/out" {
		t.Errorf("results dir = %q", cfg.ResultsDir)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	cfg := &Config{Provider: "anthropic", OpenAIKey: "sk-openai"}

	provider, key, err := cfg.APIKey("")
	if err != nil {
		t.Fatal(err)
	}
	// Preferred provider has no key; the other one is used.
	if provider != "openai" || key != "sk-openai" {
		t.Errorf("got %s/%s", provider, key)
	}
}

func TestAPIKeyPreferredOverride(t *testing.T) {
	cfg := &Config{Provider: "openai", OpenAIKey: "sk-openai", AnthropicKey: "sk-ant"}

	provider, key, err := cfg.APIKey("anthropic")
	if err != nil {
		t.Fatal(err)
	}
	if provider != "anthropic" || key != "sk-ant" {
		t.Errorf("got %s/%s", provider, key)
	}
}

func TestAPIKeyMissing(t *testing.T) {
	cfg := &Config{Provider: "openai"}
	if _, _, err := cfg.APIKey(""); err == nil {
		t.Fatal("expected an error with no keys set")
	}
}
