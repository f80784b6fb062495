package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/yndnr/portmesh-go/internal/core/domain"
	"github.com/yndnr/portmesh-go/internal/core/portset"
	"github.com/yndnr/portmesh-go/internal/infra/confloader"
	"github.com/yndnr/portmesh-go/internal/infra/geoip"
	"github.com/yndnr/portmesh-go/internal/infra/shutdown"
	"github.com/yndnr/portmesh-go/internal/infra/tlsctx"
	"github.com/yndnr/portmesh-go/internal/server/config"
	"github.com/yndnr/portmesh-go/internal/server/httpserver"
	"github.com/yndnr/portmesh-go/internal/server/probeserver"
	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
	"github.com/yndnr/portmesh-go/internal/telemetry/metric"
)

// shutdownSlack is added to the grace period for the hooks that run
// after the listeners have drained.
const shutdownSlack = 5 * time.Second

// App is one assembled server process.
type App struct {
	cfg    *config.ServerConfig
	log    logger.Logger
	loader *confloader.Loader

	bindings  []domain.PortBinding
	tlsConfig *tls.Config

	metrics    *metric.Registry
	geo        *geoip.DB
	supervisor *probeserver.Supervisor
	admin      *httpserver.Server
	watcher    *confloader.Watcher

	probeOpts []probeserver.Option
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l logger.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithProbeOptions passes extra options to the listener supervisor.
func WithProbeOptions(opts ...probeserver.Option) Option {
	return func(a *App) {
		a.probeOpts = append(a.probeOpts, opts...)
	}
}

// WithConfigLoader enables hot reload of the log level when the loader
// reads a config file.
func WithConfigLoader(l *confloader.Loader) Option {
	return func(a *App) {
		a.loader = l
	}
}

// New resolves the port set and builds the TLS context. It returns a
// *domain.ConfigError or *domain.CertificateError (possibly wrapped) when
// startup must abort; nothing has been bound at that point.
func New(cfg *config.ServerConfig, opts ...Option) (*App, error) {
	a := &App{
		cfg: cfg,
		log: logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}

	bindings, err := ResolveBindings(&cfg.Listener)
	if err != nil {
		return nil, err
	}

	tlsConfig, bindings, err := buildTLS(&cfg.TLS, bindings, a.log)
	if err != nil {
		return nil, err
	}
	a.bindings = bindings
	a.tlsConfig = tlsConfig

	geo, err := openGeoIP(cfg.GeoIP.Database, a.log)
	if err != nil {
		return nil, err
	}
	a.geo = geo

	a.metrics = metric.NewRegistry()
	admission := probeserver.NewAdmission(cfg.Listener.AcceptRate, cfg.Listener.AcceptBurst)

	probeOpts := append([]probeserver.Option{
		probeserver.WithLogger(a.log),
		probeserver.WithMetrics(a.metrics),
		probeserver.WithGeoIP(geo),
		probeserver.WithAdmission(admission),
	}, a.probeOpts...)
	a.supervisor = probeserver.NewSupervisor(tlsConfig, ProbeConfig(&cfg.Listener), probeOpts...)

	if cfg.Admin.Addr != "" {
		a.admin = httpserver.New(cfg.Admin.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Status:    a.supervisor,
			Metrics:   a.metrics.Handler(),
			Logger:    a.log.With("component", "admin"),
			AllowList: cfg.Admin.AllowList,
		}))
	}
	return a, nil
}

// ResolveBindings turns the listener section into the ordered binding set.
func ResolveBindings(cfg *config.ListenerSection) ([]domain.PortBinding, error) {
	spec, err := cfg.PortSpec()
	if err != nil {
		return nil, err
	}
	return portset.NewResolver(portset.WithMaxPorts(cfg.MaxPorts)).Resolve(spec)
}

// ProbeConfig maps the listener section onto listener settings.
func ProbeConfig(cfg *config.ListenerSection) probeserver.Config {
	return probeserver.Config{
		Host:             cfg.Host,
		Backlog:          cfg.Backlog,
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadTimeout:      cfg.ReadTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		ReadLimit:        cfg.ReadLimit,
		MaxAcceptRetries: cfg.MaxAcceptRetries,
		GracePeriod:      cfg.GracePeriod,
	}
}

// buildTLS loads the certificate when at least one binding needs it.
// Under the bindings failure scope a certificate error drops the TLS
// bindings instead of aborting, unless no binding would remain.
func buildTLS(cfg *config.TLSSection, bindings []domain.PortBinding, log logger.Logger) (*tls.Config, []domain.PortBinding, error) {
	if !domain.HasTLS(bindings) {
		return nil, bindings, nil
	}

	tlsConfig, err := tlsctx.Build(cfg.CertFile, cfg.KeyFile)
	if err == nil {
		if info, ok := tlsctx.Describe(tlsConfig); ok {
			log.Info("tls context ready",
				"subject", info.Subject,
				"not_after", info.NotAfter,
			)
			if info.Expired(time.Now()) {
				log.Warn("serving certificate is outside its validity window", "not_after", info.NotAfter)
			}
		}
		return tlsConfig, bindings, nil
	}

	if cfg.FailureScope != config.FailureScopeBindings {
		return nil, nil, fmt.Errorf("tls context: %w", err)
	}

	tlsBindings, plain := domain.SplitBindings(bindings)
	if len(plain) == 0 {
		return nil, nil, fmt.Errorf("tls context: %w", err)
	}
	log.Error("tls bindings disabled",
		"event", probeserver.EventListenerFailed,
		"ports", len(tlsBindings),
		"error", err,
	)
	return nil, plain, nil
}

func openGeoIP(path string, log logger.Logger) (*geoip.DB, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	log.Info("geoip database loaded", "path", path)
	return db, nil
}

// Bindings returns the bindings the supervisor will run.
func (a *App) Bindings() []domain.PortBinding {
	return a.bindings
}

// Supervisor returns the listener supervisor.
func (a *App) Supervisor() *probeserver.Supervisor {
	return a.supervisor
}

// Metrics returns the metrics registry.
func (a *App) Metrics() *metric.Registry {
	return a.metrics
}

// AdminAddr returns the admin server address, or nil when disabled or
// not yet started.
func (a *App) AdminAddr() net.Addr {
	if a.admin == nil {
		return nil
	}
	return a.admin.Addr()
}

// Start binds every listener, then the admin server and config watcher.
// It fails only when no listener could be bound or the admin address is
// unusable.
func (a *App) Start(ctx context.Context) error {
	listening, err := a.supervisor.Start(ctx, a.bindings)
	if err != nil {
		return err
	}
	a.log.Info("listeners ready", "listening", listening, "configured", len(a.bindings))

	if a.admin != nil {
		if err := a.admin.Listen(); err != nil {
			return fmt.Errorf("admin server: %w", err)
		}
		go func() {
			if err := a.admin.Serve(); err != nil {
				a.log.Error("admin server error", "error", err)
			}
		}()
		a.log.Info("admin server listening", "addr", a.admin.Addr().String())
	}

	if a.loader != nil && a.loader.FilePath() != "" {
		if err := a.startWatcher(); err != nil {
			a.log.Warn("config watcher disabled", "error", err)
		}
	}
	return nil
}

func (a *App) startWatcher() error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(a.log))
	if err != nil {
		return err
	}
	if err := w.Watch(a.loader.FilePath()); err != nil {
		_ = w.Stop()
		return err
	}
	w.OnChange(a.onConfigChange)
	w.StartAsync()
	a.watcher = w
	return nil
}

// onConfigChange applies the log level from a changed config file. Other
// settings take effect on restart.
func (a *App) onConfigChange(path string) {
	cfg, err := ReloadConfig(a.loader)
	if err != nil {
		a.log.Warn("config reload rejected", "path", path, "error", err)
		return
	}
	before := logger.GetLevel()
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		a.log.Warn("config reload rejected", "path", path, "error", err)
		return
	}
	if after := logger.GetLevel(); after != before {
		a.log.Info("log level changed", "level", after)
	}
}

// Run starts the app and blocks until a signal arrives, ctx is done or
// every listener has stopped. It then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	h := shutdown.NewHandler(a.cfg.Listener.GracePeriod+shutdownSlack, shutdown.WithLogger(a.log))

	// Hooks run in reverse order of registration.
	h.OnShutdown("geoip", func(context.Context) error { return a.geo.Close() })
	h.OnShutdown("listeners", a.shutdownListeners)
	h.OnShutdown("admin", func(ctx context.Context) error {
		if a.admin == nil {
			return nil
		}
		return a.admin.Shutdown(ctx)
	})
	h.OnShutdown("watcher", func(context.Context) error {
		if a.watcher == nil {
			return nil
		}
		return a.watcher.Stop()
	})

	if err := a.Start(ctx); err != nil {
		h.Trigger()
		_ = h.Wait(context.Background())
		return err
	}

	var lost atomic.Bool
	go func() {
		select {
		case <-a.supervisor.Done():
			if allFailed(a.supervisor.States()) {
				lost.Store(true)
				a.log.Error("all listeners failed")
			}
			h.Trigger()
		case <-h.Done():
		}
	}()

	if err := h.Wait(ctx); err != nil {
		return err
	}
	if lost.Load() {
		return fmt.Errorf("%w: every listener failed after startup", probeserver.ErrNoListeners)
	}
	return nil
}

func allFailed(states []domain.ListenerState) bool {
	for _, st := range states {
		if st.Status != domain.StatusFailed {
			return false
		}
	}
	return len(states) > 0
}

func (a *App) shutdownListeners(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, a.cfg.Listener.GracePeriod)
	defer cancel()

	err := a.supervisor.Shutdown(sctx)
	if errors.Is(err, context.DeadlineExceeded) {
		// In-flight connections were aborted; already logged.
		return nil
	}
	return err
}
