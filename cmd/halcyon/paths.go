package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benaskins/halcyon/internal/audit"
	"github.com/benaskins/halcyon/internal/config"
	"github.com/benaskins/halcyon/internal/homeserver"
	"github.com/benaskins/halcyon/internal/session"
	"github.com/benaskins/halcyon/internal/vault"
)

// halcyonHome returns the path to the halcyon home directory (~/.halcyon).
func halcyonHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".halcyon"), nil
}

// loadConfig reads the config file named by --config or the default path.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// openStore constructs the platform storage handle, wrapped with audit
// logging when an audit log is configured.
func openStore(cfg *config.Config, actor string) (vault.Store, error) {
	store, err := vault.Open(cfg.Service)
	if err != nil {
		return nil, fmt.Errorf("opening secure storage: %w", err)
	}
	if cfg.AuditLog == "" {
		return store, nil
	}
	auditLog, err := audit.NewLogger(cfg.AuditLog)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return vault.NewAuditedStore(store, auditLog, actor), nil
}

// newManager wires a session manager from config: storage handle plus a
// homeserver client bounded by the configured timeout.
func newManager(cfg *config.Config, actor string) (*session.Manager, vault.Store, error) {
	store, err := openStore(cfg, actor)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := newManagerWithStore(cfg, store)
	if err != nil {
		return nil, nil, err
	}
	return mgr, store, nil
}

// newManagerWithStore builds a session manager over an existing storage
// handle. The handle is process-wide shared state; config reloads swap the
// homeserver client but never the store.
func newManagerWithStore(cfg *config.Config, store vault.Store) (*session.Manager, error) {
	if cfg.HomeserverURL == "" {
		return nil, fmt.Errorf("no homeserver_url configured (set it in %s or pass --homeserver)", config.DefaultPath())
	}

	timeout, err := cfg.Timeout(homeserver.DefaultTimeout)
	if err != nil {
		return nil, err
	}

	client, err := homeserver.New(cfg.HomeserverURL, homeserver.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}

	return session.NewManager(store, client), nil
}

// requestTimeout returns the configured per-request budget for CLI calls.
func requestTimeout(cfg *config.Config) time.Duration {
	d, err := cfg.Timeout(homeserver.DefaultTimeout)
	if err != nil {
		return homeserver.DefaultTimeout
	}
	return d
}
