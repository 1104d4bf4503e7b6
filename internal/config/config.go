// Package config loads the server configuration from a JSONC file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ServerConfig holds host-level settings.
type ServerConfig struct {
	// MetricsAddress is the listen address for /metrics and /health.
	// Empty disables the listener.
	MetricsAddress string `json:"metrics_address"`
	// LogDir is where log files are written.
	LogDir string `json:"log_dir"`
	// LogJSON is accepted in the config file but read by nothing: the
	// server's logger always writes text.
	LogJSON bool `json:"log_json"`
	// AuditLog is the JSONL audit transcript path. Empty disables auditing.
	AuditLog string `json:"audit_log"`
	// EventBufferSize bounds the per-session event buffer.
	EventBufferSize int `json:"event_buffer_size"`
}

// GDBConfig holds debugger launch defaults. Tool calls may override the path
// and architecture per session.
type GDBConfig struct {
	Path         string   `json:"path"`
	Args         []string `json:"args"`
	TimeoutMS    int      `json:"timeout_ms"`
	Architecture string   `json:"architecture"`
}

// Timeout returns the per-command timeout as a duration.
func (g GDBConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMS) * time.Millisecond
}

// Config is the full configuration tree.
type Config struct {
	Server ServerConfig `json:"server"`
	GDB    GDBConfig    `json:"gdb"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			LogDir:          defaultLogDir(),
			EventBufferSize: 1000,
		},
		GDB: GDBConfig{
			Path:      "gdb-multiarch",
			Args:      []string{"--interpreter=mi2"},
			TimeoutMS: 30000,
		},
	}
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "logs"
	}
	return filepath.Join(home, ".inquisitor", "logs")
}

// Load reads a JSONC config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(StripJSONComments(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the loaded configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.GDB.Path == "" {
		return fmt.Errorf("gdb.path cannot be empty")
	}
	if c.GDB.TimeoutMS <= 0 {
		return fmt.Errorf("gdb.timeout_ms must be positive")
	}
	if c.Server.EventBufferSize <= 0 {
		return fmt.Errorf("server.event_buffer_size must be positive")
	}
	return nil
}
