package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM.Model = %q, want gpt-4o-mini", cfg.LLM.Model)
	}
	if cfg.LLM.Retries != 1 {
		t.Errorf("LLM.Retries = %d, want 1", cfg.LLM.Retries)
	}
	if cfg.Output.Dir != "./output" {
		t.Errorf("Output.Dir = %q, want ./output", cfg.Output.Dir)
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	yaml := `
llm:
  provider: groq
  model: test-model
  timeout_seconds: 30
output:
  dir: ./chapters
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LLM.Provider != "groq" {
		t.Errorf("LLM.Provider = %q, want groq", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "test-model" {
		t.Errorf("LLM.Model = %q, want test-model", cfg.LLM.Model)
	}
	if cfg.LLM.TimeoutSeconds != 30 {
		t.Errorf("LLM.TimeoutSeconds = %d, want 30", cfg.LLM.TimeoutSeconds)
	}
	if cfg.Output.Dir != "./chapters" {
		t.Errorf("Output.Dir = %q, want ./chapters", cfg.Output.Dir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	t.Setenv("OPENAI_API_KEY", "test-openai")
	t.Setenv("GROQ_API_KEY", "test-groq")
	t.Setenv("GCS_BUCKET", "test-bucket")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.OpenAIAPIKey != "test-openai" {
		t.Errorf("OpenAIAPIKey = %q, want test-openai", cfg.OpenAIAPIKey)
	}
	if cfg.GroqAPIKey != "test-groq" {
		t.Errorf("GroqAPIKey = %q, want test-groq", cfg.GroqAPIKey)
	}
	if cfg.GCSBucket != "test-bucket" {
		t.Errorf("GCSBucket = %q, want test-bucket", cfg.GCSBucket)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("llm:\n  model: from-yaml"), 0644)
	t.Setenv("AABOOK_MODEL", "from-env")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LLM.Model != "from-env" {
		t.Errorf("LLM.Model = %q, want from-env", cfg.LLM.Model)
	}
}

func TestAPIKeyFollowsProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     string
	}{
		{name: "openai", provider: "openai", want: "key-openai"},
		{name: "groq", provider: "groq", want: "key-groq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				OpenAIAPIKey: "key-openai",
				GroqAPIKey:   "key-groq",
				LLM:          LLMConfig{Provider: tt.provider},
			}
			if got := cfg.APIKey(); got != tt.want {
				t.Errorf("APIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{TimeoutSeconds: 30}}
	if got := cfg.Timeout().Seconds(); got != 30 {
		t.Errorf("Timeout() = %vs, want 30s", got)
	}

	cfg = &Config{}
	if got := cfg.Timeout().Seconds(); got != 90 {
		t.Errorf("Timeout() default = %vs, want 90s", got)
	}
}
