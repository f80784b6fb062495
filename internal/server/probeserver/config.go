package probeserver

import (
	"context"
	"net"
	"time"

	"github.com/yndnr/portmesh-go/internal/infra/geoip"
	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
	"github.com/yndnr/portmesh-go/internal/telemetry/metric"
)

// Config holds per-listener settings shared by all listeners of a run.
type Config struct {
	// Host is the bind address. Empty binds the IPv4 wildcard address.
	Host string
	// Backlog is the listen(2) queue length. Must be positive.
	Backlog int

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// ReadLimit is the maximum number of bytes read from a request.
	ReadLimit int

	// MaxAcceptRetries is the number of consecutive accept errors after
	// which the listener is marked failed.
	MaxAcceptRetries int

	// GracePeriod bounds how long Supervisor.Run waits for in-flight
	// connections when shutting down.
	GracePeriod time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Backlog:          5,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadLimit:        1024,
		MaxAcceptRetries: 10,
		GracePeriod:      10 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Backlog <= 0 {
		c.Backlog = d.Backlog
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.MaxAcceptRetries <= 0 {
		c.MaxAcceptRetries = d.MaxAcceptRetries
	}
	if c.GracePeriod < 0 {
		c.GracePeriod = 0
	}
	return c
}

// deps are the collaborators shared by the supervisor, its listeners and
// their handlers. All of them may be nil except logger.
type deps struct {
	logger    logger.Logger
	metrics   *metric.Registry
	geo       *geoip.DB
	admission *Admission
	listen    ListenFunc
}

// ListenFunc opens the listening socket for one binding.
type ListenFunc func(ctx context.Context, host string, port, backlog int) (net.Listener, error)

// Option configures optional collaborators.
type Option func(*deps)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics records connection and listener metrics on r.
func WithMetrics(r *metric.Registry) Option {
	return func(d *deps) {
		d.metrics = r
	}
}

// WithGeoIP adds the peer country to accept logs.
func WithGeoIP(db *geoip.DB) Option {
	return func(d *deps) {
		d.geo = db
	}
}

// WithAdmission enables per-peer admission control.
func WithAdmission(a *Admission) Option {
	return func(d *deps) {
		d.admission = a
	}
}

// WithListenFunc replaces how listeners open their sockets, for example
// to adopt descriptors inherited from a service manager.
func WithListenFunc(fn ListenFunc) Option {
	return func(d *deps) {
		if fn != nil {
			d.listen = fn
		}
	}
}

func newDeps(opts []Option) deps {
	d := deps{logger: logger.Discard(), listen: listen}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d deps) options() []Option {
	return []Option{WithLogger(d.logger), WithMetrics(d.metrics), WithGeoIP(d.geo), WithAdmission(d.admission), WithListenFunc(d.listen)}
}
