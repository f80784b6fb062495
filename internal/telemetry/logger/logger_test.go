package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"strings"
	"testing"
)

// decode parses the single JSON record in buf.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log record %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"text format", Config{Level: "debug", Format: "text"}, false},
		{"console format", Config{Level: "info", Format: "console"}, false},
		{"empty level and format", Config{}, false},
		{"unknown level", Config{Level: "loud"}, true},
		{"unknown format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() > 0 {
		t.Fatalf("records below warn were written: %s", buf.String())
	}

	l.Warn("warn message")
	if entry := decode(t, &buf); entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.With("port", 9443, "tls", true).Info("listener started", "event", "listener_started")

	entry := decode(t, &buf)
	if entry["port"] != float64(9443) {
		t.Errorf("port = %v, want 9443", entry["port"])
	}
	if entry["tls"] != true {
		t.Errorf("tls = %v, want true", entry["tls"])
	}
	if entry["event"] != "listener_started" {
		t.Errorf("event = %v, want listener_started", entry["event"])
	}
}

func TestSetLevel(t *testing.T) {
	defer func() { _ = SetLevel("info") }()

	var buf bytes.Buffer
	l, err := New(Config{Level: "error", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("filtered")
	if buf.Len() > 0 {
		t.Fatal("info written at error level")
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	l.Info("written")
	if buf.Len() == 0 {
		t.Error("info not written after SetLevel(debug)")
	}

	if err := SetLevel("verbose"); err == nil {
		t.Error("SetLevel(verbose) error = nil")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() after rejected SetLevel = %q, want debug", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetLevel(t *testing.T) {
	defer func() { _ = SetLevel("info") }()

	for _, name := range []string{"debug", "info", "warn", "error"} {
		if err := SetLevel(name); err != nil {
			t.Fatalf("SetLevel(%q) error = %v", name, err)
		}
		if got := GetLevel(); got != name {
			t.Errorf("GetLevel() = %q, want %q", got, name)
		}
	}
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	SetDefault(l)

	if Default() != l {
		t.Error("Default() did not return the logger passed to SetDefault")
	}

	slog.Info("through log/slog")
	if entry := decode(t, &buf); entry["msg"] != "through log/slog" {
		t.Errorf("msg = %v, want the slog.Info message", entry["msg"])
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("connection accepted", "event", "conn_accepted")

	output := buf.String()
	if !strings.Contains(output, "connection accepted") {
		t.Errorf("text output missing message: %s", output)
	}
	if !strings.Contains(output, "event=conn_accepted") {
		t.Errorf("text output missing event=conn_accepted: %s", output)
	}
}

func TestLogger_AddrRenderedAsString(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("connection accepted", "peer", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4242})

	if entry := decode(t, &buf); entry["peer"] != "127.0.0.1:4242" {
		t.Errorf("peer = %v, want 127.0.0.1:4242", entry["peer"])
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	l.With("port", 80).WithContext(context.Background()).Info("dropped")
}
