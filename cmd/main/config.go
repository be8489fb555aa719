package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/CTAG07/Drosera/pkg/ngram"
)

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	ApiAddr      string `json:"api_addr"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`
}

// GenerateDefaults holds the default model parameters applied when a
// generation request leaves them unset.
type GenerateDefaults struct {
	Order           int     `json:"order"`
	Bounds          string  `json:"bounds"`
	StopProbability float64 `json:"stop_probability"`
	MaxWalkLength   int     `json:"max_walk_length"`
	MaxAttempts     int     `json:"max_attempts"`
	Count           int     `json:"count"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server   *ServerConfig     `json:"server_config"`
	Generate *GenerateDefaults `json:"generate_defaults"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:      ":7287",
		LogLevel:     "info",
		DataDir:      "./data",
		DatabasePath: "./data/drosera.db?_journal_mode=WAL&_busy_timeout=5000",
	}
}

// DefaultGenerateDefaults creates generation defaults with default values.
func DefaultGenerateDefaults() *GenerateDefaults {
	return &GenerateDefaults{
		Order:           2,
		Bounds:          "0,100",
		StopProbability: ngram.DefaultStopProbability,
		MaxWalkLength:   ngram.DefaultMaxWalkLength,
		MaxAttempts:     ngram.DefaultMaxAttempts,
		Count:           1,
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Server:   DefaultServerConfig(),
		Generate: DefaultGenerateDefaults(),
	}

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ConfigManager handles thread-safe access to the configuration.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return &ConfigManager{
		config:     cfg,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetLogger sets the logger. That's about it.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.logger = logger
}

// Get returns a thread-safe copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	// Return a dereferenced copy to prevent external modification of the internal state
	return *cm.config
}

// Update updates the configuration and saves it to disk.
func (cm *ConfigManager) Update(newConfig Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	*cm.config = newConfig

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
