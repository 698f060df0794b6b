package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envHuggingFaceToken  = "HUGGINGFACE_TOKEN"
	envConfigPath        = "HUGBRIDGE_CONFIG"
	defaultCooldownSecs  = 1
	defaultStatusPort    = 18791
	defaultRequestTimout = 120
)

// Config is the root runtime configuration loaded from config.json with
// environment overrides applied on top.
type Config struct {
	Telegram     TelegramConfig  `json:"telegram"`
	Inference    InferenceConfig `json:"inference"`
	Models       []ModelConfig   `json:"models,omitempty"`
	DefaultModel string          `json:"default_model,omitempty"`
	Worker       WorkerConfig    `json:"worker"`
	Status       StatusConfig    `json:"status"`
	Logging      LoggingConfig   `json:"logging,omitempty"`
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token string `json:"token"`
}

// InferenceConfig stores credentials and timeouts for remote generation backends.
type InferenceConfig struct {
	HuggingFaceToken      string       `json:"huggingface_token"`
	RequestTimeoutSeconds int          `json:"request_timeout_seconds,omitempty"`
	OpenAI                OpenAIConfig `json:"openai,omitempty"`
}

// OpenAIConfig configures the optional OpenAI-compatible backend.
type OpenAIConfig struct {
	BaseURL   string `json:"base_url,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
}

// ModelConfig describes one generation backend entry for the model registry.
type ModelConfig struct {
	Key         string         `json:"key"`
	DisplayName string         `json:"display_name"`
	Endpoint    string         `json:"endpoint"`
	Output      string         `json:"output"`
	Provider    string         `json:"provider,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// WorkerConfig controls the generation worker loop.
type WorkerConfig struct {
	CooldownSeconds int `json:"cooldown_seconds,omitempty"`
}

// StatusConfig configures the keep-alive status/metrics HTTP server.
type StatusConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// LoadConfig resolves config.json when present, unmarshals it, and applies
// environment overrides. A missing config file is not an error: the bot can
// run entirely from the built-in model catalog plus token env vars.
func LoadConfig() (*Config, error) {
	var cfg Config

	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate checks the two required credentials. Absence of either is a fatal
// startup error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required (set TELEGRAM_BOT_TOKEN)")
	}
	if strings.TrimSpace(c.Inference.HuggingFaceToken) == "" {
		return errors.New("inference.huggingface_token is required (set HUGGINGFACE_TOKEN)")
	}

	return nil
}

// applyEnvOverrides injects token env vars on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Telegram.Token = token
	}

	if token := strings.TrimSpace(os.Getenv(envHuggingFaceToken)); token != "" {
		cfg.Inference.HuggingFaceToken = token
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Worker.CooldownSeconds <= 0 {
		cfg.Worker.CooldownSeconds = defaultCooldownSecs
	}
	if cfg.Status.Port <= 0 {
		cfg.Status.Port = defaultStatusPort
	}
	if cfg.Inference.RequestTimeoutSeconds <= 0 {
		cfg.Inference.RequestTimeoutSeconds = defaultRequestTimout
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is HUGBRIDGE_CONFIG first, then cwd-local fallback paths. An
// empty path with a nil error means no config file is in play.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}
