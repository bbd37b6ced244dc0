// Package config loads the demo service configuration with layered sources:
// built-in defaults, then an optional YAML file, then TILEGUARD_* environment
// variables. ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the service's environment variables, e.g.
// TILEGUARD_SERVER_LISTEN_ADDR overrides server.listen_addr.
const EnvPrefix = "TILEGUARD_"

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "TILEGUARD_CONFIG"

// DefaultConfigPaths lists where a config file is searched, first hit wins.
var DefaultConfigPaths = []string{
	"tileguard.yaml",
	"tileguard.yml",
	"/etc/tileguard/config.yaml",
}

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Engine EngineConfig `koanf:"engine"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr string `koanf:"listen_addr"`
}

// EngineConfig tunes the detection thresholds that are operator-adjustable.
// Thresholds not listed here are fixed heuristics.
type EngineConfig struct {
	MaxSpeedKmh       float64 `koanf:"max_speed_kmh"`
	MaxTilesPerMinute int     `koanf:"max_tiles_per_minute"`

	// BlockScore / FlagScore drive the demo server's decision mapping:
	// verdicts at or above BlockScore are rejected, at or above FlagScore
	// accepted but flagged.
	BlockScore int `koanf:"block_score"`
	FlagScore  int `koanf:"flag_score"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Engine: EngineConfig{
			MaxSpeedKmh:       50,
			MaxTilesPerMinute: 8,
			BlockScore:        90,
			FlagScore:         50,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// TILEGUARD_SERVER_LISTEN_ADDR -> server.listen_addr
	envProvider := env.Provider(EnvPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Engine.MaxSpeedKmh <= 0 {
		return fmt.Errorf("engine.max_speed_kmh must be positive, got %v", c.Engine.MaxSpeedKmh)
	}
	if c.Engine.MaxTilesPerMinute <= 0 {
		return fmt.Errorf("engine.max_tiles_per_minute must be positive, got %d", c.Engine.MaxTilesPerMinute)
	}
	if c.Engine.FlagScore > c.Engine.BlockScore {
		return fmt.Errorf("engine.flag_score (%d) must not exceed engine.block_score (%d)",
			c.Engine.FlagScore, c.Engine.BlockScore)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps TILEGUARD_SECTION_SOME_KEY to section.some_key. The
// first underscore separates the section; the rest of the key keeps its
// underscores.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return key
	}
	return parts[0] + "." + parts[1]
}
