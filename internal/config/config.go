// Package config provides configuration management for tusk.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/anortham/tusk-sub002/pkg/relevance"
)

// Defaults.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultResultLimit         = 50
	DefaultRecallDays          = 7
	DefaultMaxConns            = 4
)

// Config holds tusk configuration, loaded from DataDir()/config.yaml.
type Config struct {
	DataDir             string            `yaml:"data_dir,omitempty"`
	SimilarityThreshold float64           `yaml:"similarity_threshold"`
	ResultLimit         int               `yaml:"result_limit"`
	RecallDays          int               `yaml:"recall_days"`
	MaxConns            int               `yaml:"max_conns"`
	Weights             relevance.Weights `yaml:"weights"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		SimilarityThreshold: DefaultSimilarityThreshold,
		ResultLimit:         DefaultResultLimit,
		RecallDays:          DefaultRecallDays,
		MaxConns:            DefaultMaxConns,
		Weights:             relevance.DefaultWeights(),
	}
}

// DataDir returns the tusk data directory: $TUSK_DATA_DIR if set, otherwise
// ~/.tusk.
func DataDir() string {
	if dir := os.Getenv("TUSK_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tusk"
	}
	return filepath.Join(home, ".tusk")
}

// ConfigPath returns the path of the YAML config file.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Load reads the config file, falling back to defaults when it does not
// exist. Unset fields keep their default values.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = DefaultResultLimit
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}

	return cfg, nil
}

// DatabasePath returns the SQLite database location, honoring a configured
// data dir override.
func (c *Config) DatabasePath() string {
	dir := c.DataDir
	if dir == "" {
		dir = DataDir()
	}
	return filepath.Join(dir, "tusk.db")
}

// EnsureDataDir creates the data directory if missing.
func (c *Config) EnsureDataDir() error {
	dir := c.DataDir
	if dir == "" {
		dir = DataDir()
	}
	return os.MkdirAll(dir, 0o755)
}
