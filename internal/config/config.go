package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is built once in main and injected everywhere; no other package
// touches the environment or a config file.
type Config struct {
	Port        string          `yaml:"port"`
	DatabaseURL string          `yaml:"database_url"`
	AuthSecret  string          `yaml:"auth_secret"`
	Blob        BlobConfig      `yaml:"blob"`
	Dictionary  DictConfig      `yaml:"dictionary"`
	Anthropic   AnthropicConfig `yaml:"anthropic"`
	Retry       RetryConfig     `yaml:"retry"`
}

type BlobConfig struct {
	Bucket string `yaml:"bucket"`
}

type DictConfig struct {
	Table string `yaml:"table"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// Load reads the optional YAML file at path, applies environment overrides,
// fills defaults and validates. path == "" means env/defaults only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Port, "PORT")
	overrideString(&c.DatabaseURL, "DATABASE_URL")
	overrideString(&c.AuthSecret, "AUTH_SECRET")
	overrideString(&c.Blob.Bucket, "BLOB_BUCKET")
	overrideString(&c.Dictionary.Table, "DICTIONARY_TABLE")
	overrideString(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	overrideString(&c.Anthropic.Model, "ANTHROPIC_MODEL")
	overrideString(&c.Anthropic.BaseURL, "ANTHROPIC_BASE_URL")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.AuthSecret == "" {
		return fmt.Errorf("auth_secret is required")
	}
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}

	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Blob.Bucket == "" {
		c.Blob.Bucket = "medscribe"
	}
	if c.Dictionary.Table == "" {
		c.Dictionary.Table = "phrase_dictionary"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-3-5-sonnet-latest"
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = 4096
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 30
	}

	return nil
}
