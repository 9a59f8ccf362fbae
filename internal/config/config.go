package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration loaded from ~/.halcyon/config.yaml.
type Config struct {
	// HomeserverURL is the base URL of the homeserver, e.g.
	// https://matrix.example.org.
	HomeserverURL string `yaml:"homeserver_url"`

	// Service names the keystore namespace for stored credentials.
	// Defaults to the vault package's service name when empty.
	Service string `yaml:"service"`

	// SocketPath is where the agent serves its local API.
	SocketPath string `yaml:"socket_path"`

	// RequestTimeout bounds connect and read for homeserver requests,
	// parsed as a Go duration ("30s", "1m"). Empty means the default.
	RequestTimeout string `yaml:"request_timeout"`

	// AuditLog is the path of the credential audit log. Empty disables
	// audit logging.
	AuditLog string `yaml:"audit_log"`
}

// DefaultPath returns the default config file path: ~/.halcyon/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".halcyon", "config.yaml")
}

// DefaultSocketPath returns the default agent socket: ~/.halcyon/agent.sock.
func DefaultSocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".halcyon", "agent.sock")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns an empty Config and no error. An empty or all-comment file
// also returns an empty Config with no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Timeout parses RequestTimeout, falling back to def when unset.
func (c *Config) Timeout(def time.Duration) (time.Duration, error) {
	if c.RequestTimeout == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	return d, nil
}

// Socket returns the configured socket path or the default.
func (c *Config) Socket() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}
	return DefaultSocketPath()
}
