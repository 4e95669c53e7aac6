package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all rollcall configuration.
type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Logging LoggingConfig `yaml:"logging"`
}

// ReportConfig configures the command-line score report.
type ReportConfig struct {
	NamesFile  string `yaml:"names_file"`
	Count      int    `yaml:"count"`
	Seed       uint64 `yaml:"seed"`
	RandomSeed bool   `yaml:"random_seed"` // ignore Seed and seed from the clock
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig configures the roster store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GeminiConfig configures the prompt assistant.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Report: ReportConfig{
			NamesFile: "names.txt",
			Count:     3,
			Seed:      4561,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
			DB:   8,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if addr := os.Getenv("ROLLCALL_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if db := os.Getenv("ROLLCALL_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.Redis.DB = n
		}
	}
	if addr := os.Getenv("ROLLCALL_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// Validate checks values the report and server cannot run without.
func (c *Config) Validate() error {
	if c.Report.NamesFile == "" {
		return errors.New("report.names_file is required")
	}
	if c.Report.Count < 0 {
		return fmt.Errorf("report.count must not be negative, got %d", c.Report.Count)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative, got %d", c.Redis.DB)
	}
	return nil
}
