package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/specnock/specnock/internal/models"
)

// Config holds the CLI configuration
type Config struct {
	Endpoints []models.Endpoint            `yaml:"endpoints"`
	SpecMap   map[string]map[string]string `yaml:"specMap,omitempty"`
	Matching  MatchingConfig               `yaml:"matching"`
	Tracing   TracingConfig                `yaml:"tracing"`
	Debug     DebugConfig                  `yaml:"debug"`
}

// MatchingConfig holds operation-matching settings
type MatchingConfig struct {
	DefaultBasePath string `yaml:"defaultBasePath"` // base path assumed when a spec declares no server URL
}

// TracingConfig holds activation-trace settings
type TracingConfig struct {
	MaxTraces int `yaml:"maxTraces"`
}

// DebugConfig holds debug API server settings
type DebugConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Matching: MatchingConfig{
			DefaultBasePath: "/",
		},
		Tracing: TracingConfig{
			MaxTraces: 1000,
		},
		Debug: DebugConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
	}
}

// Load reads configuration from a YAML file, layered over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
