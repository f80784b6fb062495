package config

import (
	"time"

	"github.com/yndnr/portmesh-go/internal/core/portset"
)

// Default configuration values.
const (
	DefaultBacklog          = 5
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReadTimeout      = 5 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultReadLimit        = 1024
	DefaultAcceptBurst      = 10
	DefaultMaxAcceptRetries = 10
	DefaultGracePeriod      = 10 * time.Second

	DefaultCertFile = "cert.pem"
	DefaultKeyFile  = "key.pem"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Limits enforced by Verify.
const (
	MaxBacklog   = 4096
	MaxReadLimit = 64 * 1024
)

// Default returns the default server configuration.
// No ports are configured by default.
func Default() *ServerConfig {
	return &ServerConfig{
		Listener: ListenerSection{
			Backlog:          DefaultBacklog,
			HandshakeTimeout: DefaultHandshakeTimeout,
			ReadTimeout:      DefaultReadTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			ReadLimit:        DefaultReadLimit,
			AcceptBurst:      DefaultAcceptBurst,
			MaxPorts:         portset.DefaultMaxPorts,
			MaxAcceptRetries: DefaultMaxAcceptRetries,
			GracePeriod:      DefaultGracePeriod,
		},
		TLS: TLSSection{
			CertFile:     DefaultCertFile,
			KeyFile:      DefaultKeyFile,
			FailureScope: FailureScopeProcess,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
