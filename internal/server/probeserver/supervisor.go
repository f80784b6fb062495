package probeserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yndnr/portmesh-go/internal/core/domain"
)

var (
	// ErrNoListeners is returned by Start when no binding could be bound.
	ErrNoListeners = errors.New("probeserver: no listener reached listening state")

	// ErrAlreadyStarted is returned by Start on a second call.
	ErrAlreadyStarted = errors.New("probeserver: supervisor already started")
)

// Supervisor runs one Listener per binding and owns their lifetimes.
type Supervisor struct {
	tlsConfig *tls.Config
	cfg       Config
	deps

	mu        sync.Mutex
	listeners []*Listener
	started   bool
	stopping  bool
	cancel    context.CancelFunc

	wg           sync.WaitGroup
	done         chan struct{}
	shutdownDone chan struct{}
}

// NewSupervisor creates a supervisor. tlsConfig may be nil when no
// binding requires TLS.
func NewSupervisor(tlsConfig *tls.Config, cfg Config, opts ...Option) *Supervisor {
	return &Supervisor{
		tlsConfig:    tlsConfig,
		cfg:          cfg.withDefaults(),
		deps:         newDeps(opts),
		done:         make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start launches one Listener per binding and returns once each of them
// has either bound its socket or failed. It returns the number of
// listeners that reached Listening. A failed bind is logged and isolated;
// only when none succeeds does Start return ErrNoListeners.
//
// Cancelling ctx stops accepting on every listener but does not wait for
// in-flight connections; use Shutdown for that.
func (s *Supervisor) Start(ctx context.Context, bindings []domain.PortBinding) (int, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return 0, ErrAlreadyStarted
	}
	if s.stopping {
		s.mu.Unlock()
		return 0, ErrNoListeners
	}

	listeners := make([]*Listener, 0, len(bindings))
	for _, b := range bindings {
		l, err := NewListener(b, s.tlsConfig, s.cfg, s.options()...)
		if err != nil {
			s.mu.Unlock()
			return 0, err
		}
		listeners = append(listeners, l)
	}
	sort.Slice(listeners, func(i, j int) bool {
		return listeners[i].binding.Port < listeners[j].binding.Port
	})

	runCtx, cancel := context.WithCancel(ctx)
	s.listeners = listeners
	s.started = true
	s.cancel = cancel

	for _, l := range listeners {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = l.Run(runCtx)
		}()
	}
	go func() {
		s.wg.Wait()
		cancel()
		close(s.done)
	}()
	if s.admission != nil {
		go s.admission.RunSweeper(runCtx, DefaultSweepInterval)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		<-l.Ready()
	}

	listening := s.Listening()
	s.logger.Info("supervisor started",
		"bindings", len(listeners),
		"listening", listening,
		"failed", len(listeners)-listening,
	)
	if listening == 0 {
		return 0, ErrNoListeners
	}
	return listening, nil
}

// Done is closed once every listener has reached a terminal state.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until every listener has reached a terminal state. It
// returns immediately if Start was never called.
func (s *Supervisor) Wait() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	<-s.done
}

// Run starts the listeners and blocks until ctx is cancelled or every
// listener has stopped, then shuts down with the configured grace period.
func (s *Supervisor) Run(ctx context.Context, bindings []domain.PortBinding) error {
	if _, err := s.Start(ctx, bindings); err != nil {
		_ = s.Shutdown(context.Background())
		return err
	}

	select {
	case <-ctx.Done():
	case <-s.done:
	}

	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.GracePeriod)
	defer cancel()
	return s.Shutdown(sctx)
}

// Shutdown stops every listener and waits for in-flight connections until
// ctx is done, then aborts the remaining ones. It is idempotent: later
// calls wait for the first to finish and return nil.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		select {
		case <-s.shutdownDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.stopping = true
	listeners := s.listeners
	cancel := s.cancel
	s.mu.Unlock()
	defer close(s.shutdownDone)

	if cancel != nil {
		cancel()
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for _, l := range listeners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Drain(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Wait()

	if len(errs) > 0 {
		s.logger.Warn("grace period elapsed, connections aborted", "listeners", len(errs))
		return fmt.Errorf("shutdown: %w", errors.Join(errs...))
	}
	s.logger.Info("supervisor stopped", "listeners", len(listeners))
	return nil
}

// States returns a snapshot of every listener, in ascending port order.
func (s *Supervisor) States() []domain.ListenerState {
	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()

	states := make([]domain.ListenerState, len(listeners))
	for i, l := range listeners {
		states[i] = l.State()
	}
	return states
}

// Listening returns the number of listeners currently in Listening state.
func (s *Supervisor) Listening() int {
	n := 0
	for _, st := range s.States() {
		if st.Status == domain.StatusListening {
			n++
		}
	}
	return n
}

// Listener returns the listener for port, or nil.
func (s *Supervisor) Listener(port int) *Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		if l.binding.Port == port {
			return l
		}
	}
	return nil
}
