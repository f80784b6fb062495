package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
)

// Verify validates the configuration. It does not resolve the port set;
// that happens in the port set resolver, which reports ConfigErrors.
func Verify(cfg *ServerConfig) error {
	if err := verifyListener(&cfg.Listener); err != nil {
		return err
	}
	if err := verifyTLS(&cfg.TLS); err != nil {
		return err
	}
	if err := verifyAdmin(&cfg.Admin); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyListener(cfg *ListenerSection) error {
	if _, err := cfg.PortSpec(); err != nil {
		return fmt.Errorf("listener.ports: %w", err)
	}

	if cfg.Host != "" {
		if _, err := netip.ParseAddr(cfg.Host); err != nil {
			return fmt.Errorf("listener.host %q is not an IP address", cfg.Host)
		}
	}

	if cfg.Backlog < 1 || cfg.Backlog > MaxBacklog {
		return fmt.Errorf("listener.backlog must be within 1-%d, got %d", MaxBacklog, cfg.Backlog)
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"listener.handshake_timeout", cfg.HandshakeTimeout},
		{"listener.read_timeout", cfg.ReadTimeout},
		{"listener.write_timeout", cfg.WriteTimeout},
	}
	for _, to := range timeouts {
		if to.d <= 0 {
			return fmt.Errorf("%s must be positive", to.name)
		}
	}

	if cfg.GracePeriod < 0 {
		return errors.New("listener.grace_period must not be negative")
	}

	if cfg.ReadLimit < 1 || cfg.ReadLimit > MaxReadLimit {
		return fmt.Errorf("listener.read_limit must be within 1-%d, got %d", MaxReadLimit, cfg.ReadLimit)
	}

	if cfg.AcceptRate < 0 {
		return errors.New("listener.accept_rate must not be negative")
	}
	if cfg.AcceptRate > 0 && cfg.AcceptBurst < 1 {
		return errors.New("listener.accept_burst must be at least 1 when accept_rate is set")
	}

	if cfg.MaxPorts < 0 {
		return errors.New("listener.max_ports must not be negative")
	}
	if cfg.MaxAcceptRetries < 1 {
		return errors.New("listener.max_accept_retries must be at least 1")
	}

	return nil
}

func verifyTLS(cfg *TLSSection) error {
	switch cfg.FailureScope {
	case FailureScopeProcess, FailureScopeBindings:
	default:
		return fmt.Errorf("tls.failure_scope must be %q or %q, got %q",
			FailureScopeProcess, FailureScopeBindings, cfg.FailureScope)
	}

	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return errors.New("tls.cert_file and tls.key_file must be set together")
	}
	return nil
}

func verifyAdmin(cfg *AdminSection) error {
	if cfg.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
			return fmt.Errorf("admin.addr: %w", err)
		}
	}

	for _, entry := range cfg.AllowList {
		if strings.Contains(entry, "/") {
			if _, err := netip.ParsePrefix(entry); err != nil {
				return fmt.Errorf("admin.allow_list: invalid CIDR %q", entry)
			}
			continue
		}
		if _, err := netip.ParseAddr(entry); err != nil {
			return fmt.Errorf("admin.allow_list: invalid IP %q", entry)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
