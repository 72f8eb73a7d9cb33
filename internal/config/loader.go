package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	pkgconfig "github.com/goran-ethernal/TransferCrawler/pkg/config"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the config file.
const (
	EnvBotToken   = "TRANSFERCRAWLER_BOT_TOKEN"
	EnvDBPassword = "TRANSFERCRAWLER_DB_PASSWORD"
	EnvDBDSN      = "TRANSFERCRAWLER_DB_DSN"
	EnvAPIKey     = "TRANSFERCRAWLER_API_KEY"
)

// LoadFromFile loads configuration from a file, picking the decoder by extension.
// Supported formats: .yaml, .yml, .json, .toml
func LoadFromFile(path string) (*pkgconfig.Config, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadFromYAML(path)
	case ".json":
		return LoadFromJSON(path)
	case ".toml":
		return LoadFromTOML(path)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
}

// LoadFromYAML loads configuration from a YAML file.
func LoadFromYAML(path string) (*pkgconfig.Config, error) {
	return decodeFile(path, "YAML", yaml.Unmarshal)
}

// LoadFromJSON loads configuration from a JSON file.
func LoadFromJSON(path string) (*pkgconfig.Config, error) {
	return decodeFile(path, "JSON", json.Unmarshal)
}

// LoadFromTOML loads configuration from a TOML file.
func LoadFromTOML(path string) (*pkgconfig.Config, error) {
	return decodeFile(path, "TOML", toml.Unmarshal)
}

func decodeFile(path, format string, unmarshal func([]byte, any) error) (*pkgconfig.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg pkgconfig.Config
	if err := unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", format, err)
	}

	return processConfig(&cfg, os.LookupEnv)
}

// processConfig applies environment overrides and defaults, then validates.
func processConfig(cfg *pkgconfig.Config, lookupEnv func(string) (string, bool)) (*pkgconfig.Config, error) {
	applyEnvOverrides(cfg, lookupEnv)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides replaces secrets with values from the environment so they
// can stay out of the config file. The API key applies to the active network.
func applyEnvOverrides(cfg *pkgconfig.Config, lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(EnvBotToken); ok {
		cfg.Notifier.BotToken = v
	}
	if v, ok := lookupEnv(EnvDBPassword); ok {
		cfg.DB.Password = v
	}
	if v, ok := lookupEnv(EnvDBDSN); ok {
		cfg.DB.DSN = v
	}
	if v, ok := lookupEnv(EnvAPIKey); ok {
		if network, exists := cfg.Networks[cfg.ActiveNetwork]; exists {
			network.APIKey = v
			cfg.Networks[cfg.ActiveNetwork] = network
		}
	}
}
