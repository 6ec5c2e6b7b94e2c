package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the client.
// It merges file defaults and environment overrides to support both
// local and deployed runs.
type Config struct {
	APIBaseURL string
	HTTPPort   int

	StateDir string
	RedisURL string

	Confidence  float64
	HTTPTimeout time.Duration
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Backend struct {
		BaseURL        string  `yaml:"base_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		Confidence     float64 `yaml:"confidence"`
	} `yaml:"backend"`
	Gateway struct {
		HTTPPort int `yaml:"http_port"`
	} `yaml:"gateway"`
	State struct {
		Dir      string `yaml:"dir"`
		RedisURL string `yaml:"redis_url"`
	} `yaml:"state"`
}

// LoadConfig resolves configuration in priority order: defaults ->
// file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		APIBaseURL:  "http://127.0.0.1:8000",
		HTTPPort:    8080,
		StateDir:    defaultStateDir(),
		Confidence:  0.25,
		HTTPTimeout: 60 * time.Second,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Backend.BaseURL != "" {
			cfg.APIBaseURL = f.Backend.BaseURL
		}
		if f.Backend.TimeoutSeconds > 0 {
			cfg.HTTPTimeout = time.Duration(f.Backend.TimeoutSeconds) * time.Second
		}
		if f.Backend.Confidence > 0 {
			cfg.Confidence = f.Backend.Confidence
		}
		if f.Gateway.HTTPPort > 0 {
			cfg.HTTPPort = f.Gateway.HTTPPort
		}
		if f.State.Dir != "" {
			cfg.StateDir = f.State.Dir
		}
		if f.State.RedisURL != "" {
			cfg.RedisURL = f.State.RedisURL
		}
	}

	cfg.APIBaseURL = envOrDefault("API_URL", cfg.APIBaseURL)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.StateDir = envOrDefault("STATE_DIR", cfg.StateDir)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.Confidence = envFloat("CONFIDENCE_THRESHOLD", cfg.Confidence)
	cfg.HTTPTimeout = time.Duration(envInt("BACKEND_TIMEOUT_SECONDS", int(cfg.HTTPTimeout.Seconds()))) * time.Second

	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("missing API_URL")
	}
	if cfg.Confidence <= 0 || cfg.Confidence > 1 {
		return Config{}, fmt.Errorf("confidence must be in (0, 1], got %v", cfg.Confidence)
	}

	return cfg, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dentalsmart"
	}
	return filepath.Join(home, ".dentalsmart")
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envFloat parses float env vars with safe fallback on empty/invalid values.
func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
