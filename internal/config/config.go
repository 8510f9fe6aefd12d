// Package config loads and validates the optional .nebu-mcp YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for extraction limits and execution bounds.
const (
	DefaultLimit     = 100
	DefaultMaxLimit  = 1000
	DefaultMaxRange  = 100
	DefaultFormat    = "compact"
	DefaultTimeout   = 120 * time.Second
	DefaultProbeTime = 30 * time.Second
	DefaultMaxOutput = 10 << 20 // 10 MB
)

// Environment variables consumed by the processor binaries; surfaced by
// the debug tool, never read by the engine itself.
const (
	EnvRPCURL  = "NEBU_RPC_URL"
	EnvRPCAuth = "NEBU_RPC_AUTH"
	EnvNetwork = "NEBU_NETWORK"
)

// Config holds the parsed .nebu-mcp configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version         int      `yaml:"version"`
	RawDefaultLimit int      `yaml:"default_limit"`
	RawMaxLimit     int      `yaml:"max_limit"`
	RawMaxRange     int64    `yaml:"max_ledger_range"`
	RawFormat       string   `yaml:"default_format"` // full, compact, summary
	RawTimeout      string   `yaml:"timeout"`        // e.g. "120s", "2m"
	RawProbeTimeout string   `yaml:"debug_timeout"`  // e.g. "30s"
	RawMaxOutput    int      `yaml:"max_output"`     // bytes
	SearchDirs      []string `yaml:"search_dirs"`    // extra processor locations, probed before the built-in ones
}

// DefaultResultLimit returns the configured default result limit or the default.
func (c *Config) DefaultResultLimit() int {
	if c.RawDefaultLimit > 0 {
		return c.RawDefaultLimit
	}
	return DefaultLimit
}

// MaxResultLimit returns the configured hard result-limit cap or the default.
func (c *Config) MaxResultLimit() int {
	if c.RawMaxLimit > 0 {
		return c.RawMaxLimit
	}
	return DefaultMaxLimit
}

// MaxLedgerRange returns the configured maximum ledger span or the default.
func (c *Config) MaxLedgerRange() int64 {
	if c.RawMaxRange > 0 {
		return c.RawMaxRange
	}
	return DefaultMaxRange
}

// DefaultOutputFormat returns the configured default format or "compact".
func (c *Config) DefaultOutputFormat() string {
	if c.RawFormat != "" {
		return c.RawFormat
	}
	return DefaultFormat
}

// Timeout returns the configured extraction timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// ProbeTimeout returns the configured debug-probe timeout or the default.
func (c *Config) ProbeTimeout() time.Duration {
	if c.RawProbeTimeout != "" {
		d, err := time.ParseDuration(c.RawProbeTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultProbeTime
}

// MaxOutputBytes returns the configured output capture cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// Load reads the .nebu-mcp file from dir, falling back to the user's home
// directory. If neither file exists, a default Config is returned.
func Load(dir string) (*Config, error) {
	paths := []string{filepath.Join(dir, ".nebu-mcp")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".nebu-mcp"))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		cfg := &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return cfg, nil
	}

	return &Config{}, nil
}
