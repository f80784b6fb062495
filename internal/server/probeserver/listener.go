package probeserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/portmesh-go/internal/core/domain"
	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
)

// Log event names. Every listener and connection log record carries one
// of them in the "event" attribute, together with "port".
const (
	EventListenerStarted = "listener_started"
	EventListenerFailed  = "listener_failed"
	EventListenerStopped = "listener_stopped"
	EventAcceptFailed    = "accept_failed"
	EventConnAccepted    = "conn_accepted"
	EventConnRejected    = "conn_rejected"
	EventHandshakeFailed = "handshake_failed"
	EventReadFailed      = "read_failed"
	EventWriteFailed     = "write_failed"
	EventHandlerPanic    = "handler_panic"
)

// Accept retry backoff bounds.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Listener owns one listening socket for one binding.
//
// Connections accepted by a Listener run on their own goroutines but stay
// within its scope: Drain waits for all of them.
type Listener struct {
	binding   domain.PortBinding
	tlsConfig *tls.Config
	cfg       Config
	deps
	handler *ConnHandler
	log     logger.Logger

	mu      sync.Mutex
	state   domain.ListenerState
	ln      net.Listener
	closing bool

	started   atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	conns      sync.WaitGroup
	hardCtx    context.Context
	hardCancel context.CancelFunc
}

// NewListener creates a listener for binding. tlsConfig is required for
// TLS bindings and shared read-only. Port 0 picks an ephemeral port.
func NewListener(binding domain.PortBinding, tlsConfig *tls.Config, cfg Config, opts ...Option) (*Listener, error) {
	if binding.Port < 0 || binding.Port > domain.MaxPort {
		return nil, binding.Validate()
	}
	if binding.TLS && tlsConfig == nil {
		return nil, fmt.Errorf("probeserver: binding %s requires a TLS configuration", binding)
	}

	cfg = cfg.withDefaults()
	d := newDeps(opts)
	hardCtx, hardCancel := context.WithCancel(context.Background())

	l := &Listener{
		binding:   binding,
		tlsConfig: tlsConfig,
		cfg:       cfg,
		deps:      d,
		handler:   NewConnHandler(cfg, d.options()...),
		log:       d.logger.With("port", binding.Port, "tls", binding.TLS),
		state: domain.ListenerState{
			Binding: binding,
			Status:  domain.StatusStarting,
			Since:   time.Now(),
		},
		ready:      make(chan struct{}),
		closeCh:    make(chan struct{}),
		done:       make(chan struct{}),
		hardCtx:    hardCtx,
		hardCancel: hardCancel,
	}
	l.metrics.SetListenerStatus(binding.Port, domain.StatusStarting.String())
	return l, nil
}

// Binding returns the listener's binding.
func (l *Listener) Binding() domain.PortBinding {
	return l.binding
}

// State returns a snapshot of the listener state.
func (l *Listener) State() domain.ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Addr returns the bound address, or nil before the listener is listening.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Ready is closed once the listener has left the Starting state.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Done is closed when Run returns.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Run binds the socket and accepts connections until ctx is cancelled or
// Close is called, in which case it returns nil with the listener Stopped.
// It returns a *domain.BindError if binding fails and the accept error if
// the socket becomes unusable; in both cases the listener is Failed.
// Run must be called at most once.
func (l *Listener) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("probeserver: listener already running")
	}
	defer close(l.done)

	ln, err := l.listen(ctx, l.cfg.Host, l.binding.Port, l.cfg.Backlog)
	if err != nil {
		if ctx.Err() != nil {
			l.transition(domain.StatusStopped, "", nil)
			return nil
		}
		bindErr := classifyBindError(l.binding.Port, err)
		l.transition(domain.StatusFailed, "", bindErr)
		l.log.Error("listener failed to bind",
			"event", EventListenerFailed,
			"reason", bindErr.Reason,
			"error", err,
		)
		return bindErr
	}

	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		ln.Close()
		l.transition(domain.StatusStopped, "", nil)
		return nil
	}
	l.ln = ln
	l.mu.Unlock()

	addr := ln.Addr().String()
	l.transition(domain.StatusListening, addr, nil)
	l.log.Info("listener started", "event", EventListenerStarted, "addr", addr, "backlog", l.cfg.Backlog)

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	if err := l.acceptLoop(ctx, ln); err != nil {
		_ = ln.Close()
		l.transition(domain.StatusFailed, addr, err)
		l.log.Error("listener failed", "event", EventListenerFailed, "error", err)
		return err
	}

	l.transition(domain.StatusStopped, addr, nil)
	l.log.Info("listener stopped", "event", EventListenerStopped)
	return nil
}

func (l *Listener) acceptLoop(ctx context.Context, ln net.Listener) error {
	var delay time.Duration
	failures := 0

	for {
		c, err := ln.Accept()
		if err != nil {
			if l.isClosing() || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listening socket closed unexpectedly: %w", err)
			}

			failures++
			if failures >= l.cfg.MaxAcceptRetries {
				return fmt.Errorf("accept failed %d times in a row: %w", failures, err)
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			l.log.Warn("accept error, retrying",
				"event", EventAcceptFailed,
				"error", err,
				"retry_in", delay,
				"consecutive", failures,
			)

			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-l.closeCh:
				t.Stop()
				return nil
			}
			continue
		}

		delay = 0
		failures = 0

		l.conns.Add(1)
		go l.serve(c)
	}
}

// serve runs the admission check and TLS handshake, then the handler.
func (l *Listener) serve(raw net.Conn) {
	defer l.conns.Done()

	peer := raw.RemoteAddr()
	ctx := logger.WithConnID(l.hardCtx, ulid.Make().String())
	log := l.log.WithContext(ctx).With("peer", peer.String())

	if !l.admission.Allow(peer) {
		log.Debug("connection rejected by admission control", "event", EventConnRejected)
		l.metrics.ConnectionRejected(l.binding.Port)
		_ = raw.Close()
		return
	}

	if country := l.geo.CountryOf(peer); country != "" {
		log.Info("connection accepted", "event", EventConnAccepted, "country", country)
	} else {
		log.Info("connection accepted", "event", EventConnAccepted)
	}
	l.metrics.ConnectionAccepted(l.binding.Port, l.binding.TLS)
	done := l.metrics.ConnectionOpened(l.binding.Port)
	defer done()

	conn := raw
	if l.binding.TLS {
		tc := tls.Server(raw, l.tlsConfig)
		hctx, cancel := context.WithTimeout(ctx, l.cfg.HandshakeTimeout)
		err := tc.HandshakeContext(hctx)
		cancel()
		if err != nil {
			herr := &domain.HandshakeError{Port: l.binding.Port, Peer: peer.String(), Cause: err}
			log.Warn("tls handshake failed", "event", EventHandshakeFailed, "error", herr)
			l.metrics.HandshakeFailed(l.binding.Port)
			_ = raw.Close()
			return
		}
		conn = tc
	}

	l.handler.Handle(ctx, conn, l.binding)
}

// Close stops accepting and releases the listening socket. In-flight
// connections are not affected. Safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() { close(l.closeCh) })

	l.mu.Lock()
	l.closing = true
	ln := l.ln
	l.mu.Unlock()

	if ln == nil {
		return nil
	}
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Drain closes the listener, waits for Run to return and then for every
// in-flight connection to finish. Only the connection wait is bounded by
// ctx: if ctx is done first, remaining connections are aborted and ctx's
// error is returned once they exit.
func (l *Listener) Drain(ctx context.Context) error {
	_ = l.Close()

	if l.started.Load() {
		<-l.done
	}

	finished := make(chan struct{})
	go func() {
		l.conns.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
	}

	l.hardCancel()
	<-finished
	return fmt.Errorf("port %d: in-flight connections aborted: %w", l.binding.Port, ctx.Err())
}

func (l *Listener) isClosing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closing
}

func (l *Listener) transition(status domain.ListenerStatus, addr string, err error) {
	l.mu.Lock()
	l.state.Status = status
	l.state.Since = time.Now()
	if addr != "" {
		l.state.Addr = addr
	}
	if err != nil {
		l.state.Error = err.Error()
	}
	l.mu.Unlock()

	l.metrics.SetListenerStatus(l.binding.Port, status.String())
	if status != domain.StatusStarting {
		l.readyOnce.Do(func() { close(l.ready) })
	}
}

func classifyBindError(port int, err error) *domain.BindError {
	reason := domain.BindOther
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		reason = domain.BindAddressInUse
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		reason = domain.BindPermissionDenied
	}
	return &domain.BindError{Reason: reason, Port: port, Cause: err}
}
