package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Listener struct {
		Ports       string        `koanf:"ports"`
		Backlog     int           `koanf:"backlog"`
		ReadTimeout time.Duration `koanf:"read_timeout"`
	} `koanf:"listener"`
	TLS struct {
		CertFile string `koanf:"cert_file"`
	} `koanf:"tls"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/path/to/config.yaml" {
		t.Errorf("FilePath() = %q, want %q", l.FilePath(), "/path/to/config.yaml")
	}
	if NewLoader().envPrefix != DefaultEnvPrefix {
		t.Errorf("default envPrefix = %q, want %q", NewLoader().envPrefix, DefaultEnvPrefix)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
listener:
  ports: "9000-9002"
  backlog: 16
  read_timeout: 2s
`)

	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Listener.Ports != "9000-9002" {
		t.Errorf("Ports = %q, want 9000-9002", cfg.Listener.Ports)
	}
	if cfg.Listener.Backlog != 16 {
		t.Errorf("Backlog = %d, want 16", cfg.Listener.Backlog)
	}
	if cfg.Listener.ReadTimeout != 2*time.Second {
		t.Errorf("ReadTimeout = %v, want 2s", cfg.Listener.ReadTimeout)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	if err := NewLoader().LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
	if err := NewLoader().LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv_SectionSeparator(t *testing.T) {
	t.Setenv("PORTMESH_TLS__CERT_FILE", "/etc/portmesh/cert.pem")
	t.Setenv("PORTMESH_LISTENER__READ_TIMEOUT", "750ms")

	var cfg testConfig
	if err := NewLoader().Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TLS.CertFile != "/etc/portmesh/cert.pem" {
		t.Errorf("CertFile = %q, want /etc/portmesh/cert.pem", cfg.TLS.CertFile)
	}
	if cfg.Listener.ReadTimeout != 750*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 750ms", cfg.Listener.ReadTimeout)
	}
}

func TestLoader_Priority(t *testing.T) {
	path := writeConfig(t, `
listener:
  ports: "from-file"
  backlog: 8
`)
	t.Setenv("PORTMESH_LISTENER__PORTS", "from-env")

	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"listener.backlog": 32}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Listener.Ports != "from-env" {
		t.Errorf("Ports = %q, want from-env (env should override file)", cfg.Listener.Ports)
	}
	if cfg.Listener.Backlog != 32 {
		t.Errorf("Backlog = %d, want 32 (overrides should win)", cfg.Listener.Backlog)
	}
}

func TestLoader_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "listener:\n  backlog: 9\n")

	var cfg testConfig
	cfg.Listener.Ports = "default"
	cfg.Listener.ReadTimeout = 5 * time.Second

	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Listener.Ports != "default" || cfg.Listener.ReadTimeout != 5*time.Second {
		t.Errorf("unset fields were overwritten: %+v", cfg.Listener)
	}
	if cfg.Listener.Backlog != 9 {
		t.Errorf("Backlog = %d, want 9", cfg.Listener.Backlog)
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "listener:\n  backlog: 4\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("tls:\n  cert_file: new.pem\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var next testConfig
	if err := l.Reload(&next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if next.TLS.CertFile != "new.pem" {
		t.Errorf("CertFile = %q, want new.pem", next.TLS.CertFile)
	}
	if next.Listener.Backlog != 0 {
		t.Errorf("Backlog = %d, stale value survived Reload", next.Listener.Backlog)
	}
}

func TestLoader_LoadMap_Unflattens(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"listener.ports": "80"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Listener.Ports != "80" {
		t.Errorf("Ports = %q, want 80", cfg.Listener.Ports)
	}
	if got := l.GetString("listener.ports"); got != "80" {
		t.Errorf("GetString() = %q, want 80", got)
	}
	if len(l.Keys()) != 1 {
		t.Errorf("Keys() = %v, want one key", l.Keys())
	}
}
