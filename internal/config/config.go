// Package config provides configuration loading and structs for semscout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the snapshot location. An empty SnapshotPath
// disables persistence entirely.
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "hash" or "openai"
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"` // overridden by OPENAI_API_KEY when set
	Dimension int    `yaml:"dimension"`
	CacheSize int    `yaml:"cache_size"`
}

// IndexingConfig bounds file ingestion.
type IndexingConfig struct {
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes"`
	Extensions       []string `yaml:"extensions"`
	BatchWorkers     int      `yaml:"batch_workers"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	DebounceMS  int      `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and
// applies defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Storage.SnapshotPath != "" {
		cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a Config with every default applied and no file involved.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8420
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Indexing.MaxFileSizeBytes == 0 {
		cfg.Indexing.MaxFileSizeBytes = 1 << 20
	}
	if cfg.Indexing.BatchWorkers == 0 {
		cfg.Indexing.BatchWorkers = 16
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
