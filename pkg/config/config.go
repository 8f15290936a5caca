package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath    = "config.yaml"
	defaultProvider      = "openai"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultGroqModel     = "llama-3.3-70b-versatile"
	defaultTimeout       = 90 * time.Second
	defaultRetries       = 1
	defaultOutputDir     = "./output"
	defaultArchivePrefix = "chapters"
)

type Config struct {
	OpenAIAPIKey string
	GroqAPIKey   string
	GCSBucket    string

	LLM     LLMConfig     `yaml:"llm"`
	Output  OutputConfig  `yaml:"output"`
	Archive ArchiveConfig `yaml:"archive"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        int    `yaml:"retries"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type ArchiveConfig struct {
	Prefix string `yaml:"prefix"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
	}

	if err := resolveSecrets(ctx, cfg); err != nil {
		return nil, err
	}

	loadYAMLConfig(cfg)
	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// Timeout is the per-request deadline for LLM calls.
func (c *Config) Timeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.LLM.Provider == "groq" {
		return c.GroqAPIKey
	}
	return c.OpenAIAPIKey
}

func loadYAMLConfig(cfg *Config) {
	data, err := os.ReadFile(defaultConfigPath)
	if err != nil {
		slog.Debug("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AABOOK_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("AABOOK_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AABOOK_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("AABOOK_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.LLM.TimeoutSeconds = secs
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultProvider
	}
	if cfg.LLM.Model == "" {
		if cfg.LLM.Provider == "groq" {
			cfg.LLM.Model = defaultGroqModel
		} else {
			cfg.LLM.Model = defaultOpenAIModel
		}
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = int(defaultTimeout / time.Second)
	}
	if cfg.LLM.Retries == 0 {
		cfg.LLM.Retries = defaultRetries
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = defaultArchivePrefix
	}
}

// resolveSecrets replaces API keys with values fetched from Secret Manager
// when *_SECRET env vars name a secret resource instead of a literal key.
func resolveSecrets(ctx context.Context, cfg *Config) error {
	openaiSecret := os.Getenv("OPENAI_API_KEY_SECRET")
	groqSecret := os.Getenv("GROQ_API_KEY_SECRET")
	if openaiSecret == "" && groqSecret == "" {
		return nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if openaiSecret != "" {
		cfg.OpenAIAPIKey, err = accessSecret(ctx, client, openaiSecret)
		if err != nil {
			return fmt.Errorf("resolve OPENAI_API_KEY_SECRET: %w", err)
		}
	}
	if groqSecret != "" {
		cfg.GroqAPIKey, err = accessSecret(ctx, client, groqSecret)
		if err != nil {
			return fmt.Errorf("resolve GROQ_API_KEY_SECRET: %w", err)
		}
	}

	return nil
}

func accessSecret(ctx context.Context, client *secretmanager.Client, name string) (string, error) {
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}

	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}
