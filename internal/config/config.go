// Package config handles reading and writing ~/.medchat/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for ~/.medchat/config.yaml.
type Config struct {
	Version int        `yaml:"version"`
	API     APIConfig  `yaml:"api"`
	Chat    ChatConfig `yaml:"chat"`
}

// APIConfig holds the two backend origins and the request timeout.
type APIConfig struct {
	PrimaryURL string `yaml:"primary_url"`
	LocalURL   string `yaml:"local_url"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

// ChatConfig holds the saved chat mode and the custom chatbot settings
// forwarded on extended-mode sends.
type ChatConfig struct {
	Mode     string            `yaml:"mode"`
	Settings map[string]string `yaml:"settings,omitempty"`
}

const configFile = "config.yaml"

// Environment variables overriding the configured backends.
const (
	EnvPrimaryURL = "MEDCHAT_API_BASE_URL"
	EnvLocalURL   = "MEDCHAT_LOCAL_API_URL"
	EnvTimeoutMS  = "MEDCHAT_TIMEOUT_MS"
)

// Dir returns the medchat state directory (~/.medchat).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".medchat"), nil
}

// ReadConfig reads config.yaml from the given medchat directory.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// WriteConfig writes cfg to config.yaml in the given medchat directory,
// creating the directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with the stock backends.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		API: APIConfig{
			PrimaryURL: "https://api.medogram.ir",
			LocalURL:   "http://127.0.0.1:8000",
			TimeoutMS:  10000,
		},
		Chat: ChatConfig{
			Mode: "standard",
		},
	}
}

// Load reads the config from dir, falling back to defaults when the file is
// absent, then applies environment overrides. A malformed file is an error;
// a missing one is not.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if _, statErr := os.Stat(filepath.Join(dir, configFile)); statErr == nil {
			return nil, err
		}
		cfg = DefaultConfig()
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvPrimaryURL); v != "" {
		cfg.API.PrimaryURL = v
	}
	if v := os.Getenv(EnvLocalURL); v != "" {
		cfg.API.LocalURL = v
	}
	if v := os.Getenv(EnvTimeoutMS); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.API.TimeoutMS = ms
		}
	}
}
