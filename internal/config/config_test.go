package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
homeserver_url: https://matrix.example.org
service: com.halcyon.test
socket_path: /tmp/halcyon-test.sock
request_timeout: 45s
audit_log: /tmp/halcyon-audit.log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HomeserverURL != "https://matrix.example.org" {
		t.Errorf("HomeserverURL = %q", cfg.HomeserverURL)
	}
	if cfg.Service != "com.halcyon.test" {
		t.Errorf("Service = %q", cfg.Service)
	}
	if cfg.SocketPath != "/tmp/halcyon-test.sock" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if cfg.AuditLog != "/tmp/halcyon-audit.log" {
		t.Errorf("AuditLog = %q", cfg.AuditLog)
	}

	d, err := cfg.Timeout(30 * time.Second)
	if err != nil {
		t.Fatalf("Timeout: %v", err)
	}
	if d != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", d)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	if cfg.HomeserverURL != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of empty file: %v", err)
	}
	if cfg.HomeserverURL != "" || cfg.Service != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoadCommentsOnly(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "# nothing configured yet\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of comments-only file: %v", err)
	}
	if cfg.HomeserverURL != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "homeserver_url: http://localhost:8008\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HomeserverURL != "http://localhost:8008" {
		t.Errorf("HomeserverURL = %q", cfg.HomeserverURL)
	}
	if cfg.Service != "" {
		t.Errorf("Service = %q, want empty", cfg.Service)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "homeserver_url: [this is: not valid\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestTimeoutDefault(t *testing.T) {
	t.Parallel()
	cfg := &Config{}

	d, err := cfg.Timeout(30 * time.Second)
	if err != nil {
		t.Fatalf("Timeout: %v", err)
	}
	if d != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", d)
	}
}

func TestTimeoutInvalid(t *testing.T) {
	t.Parallel()
	cfg := &Config{RequestTimeout: "soon"}

	if _, err := cfg.Timeout(30 * time.Second); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestSocketFallsBackToDefault(t *testing.T) {
	t.Parallel()

	cfg := &Config{SocketPath: "/tmp/custom.sock"}
	if got := cfg.Socket(); got != "/tmp/custom.sock" {
		t.Errorf("Socket = %q", got)
	}

	empty := &Config{}
	if got := empty.Socket(); got != DefaultSocketPath() {
		t.Errorf("Socket = %q, want default %q", got, DefaultSocketPath())
	}
}
