package probeserver

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/yndnr/portmesh-go/internal/core/domain"
	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
	"github.com/yndnr/portmesh-go/internal/telemetry/metric"
)

// lingerTimeout bounds how long a closing connection waits for the peer
// to finish sending, so unread input does not turn the close into a reset
// that discards the response.
const lingerTimeout = 200 * time.Millisecond

// ConnHandler serves exactly one request per connection.
type ConnHandler struct {
	readLimit    int
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       logger.Logger
	metrics      *metric.Registry
}

// NewConnHandler creates a handler.
func NewConnHandler(cfg Config, opts ...Option) *ConnHandler {
	cfg = cfg.withDefaults()
	d := newDeps(opts)
	return &ConnHandler{
		readLimit:    cfg.ReadLimit,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		logger:       d.logger,
		metrics:      d.metrics,
	}
}

// Handle reads at most one bounded request from conn, writes the fixed
// response for binding and closes conn. It never panics and never returns
// an error: every failure is logged and ends the connection.
//
// Cancelling ctx aborts blocked I/O immediately; it is the hard stop used
// when the shutdown grace period has elapsed.
func (h *ConnHandler) Handle(ctx context.Context, conn net.Conn, binding domain.PortBinding) {
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	log := h.logger.WithContext(ctx).With("port", binding.Port, "peer", peer)

	defer func() {
		if r := recover(); r != nil {
			log.Error("connection handler panic",
				"event", EventHandlerPanic,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := h.read(ctx, conn, binding, peer); err != nil {
		var cerr *domain.ConnectionError
		if errors.As(err, &cerr) && cerr.Reason == domain.ConnReadTimeout {
			log.Debug("read timed out, responding anyway", "event", EventReadFailed, "reason", cerr.Reason)
		} else {
			h.fail(log, EventReadFailed, binding.Port, err)
			return
		}
	}

	if err := h.write(ctx, conn, binding, peer); err != nil {
		h.fail(log, EventWriteFailed, binding.Port, err)
		return
	}

	linger(conn)
}

// read performs one best-effort read. io.EOF counts as success: a peer
// that sent nothing still gets the response.
func (h *ConnHandler) read(ctx context.Context, conn net.Conn, binding domain.PortBinding, peer string) error {
	if err := conn.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
		return h.connError(ctx, binding, peer, err, domain.ConnAborted)
	}

	buf := make([]byte, h.readLimit)
	_, err := conn.Read(buf)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return h.connError(ctx, binding, peer, err, domain.ConnAborted)
}

func (h *ConnHandler) write(ctx context.Context, conn net.Conn, binding domain.PortBinding, peer string) error {
	if ctx.Err() != nil {
		return &domain.ConnectionError{Reason: domain.ConnAborted, Port: binding.Port, Peer: peer, Cause: context.Cause(ctx)}
	}
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return h.connError(ctx, binding, peer, err, domain.ConnWriteFailure)
	}
	if _, err := conn.Write(Response(binding.TLS)); err != nil {
		return h.connError(ctx, binding, peer, err, domain.ConnWriteFailure)
	}
	return nil
}

// connError classifies an I/O error. fallback is used when the error is
// neither a timeout nor a reset.
func (h *ConnHandler) connError(ctx context.Context, binding domain.PortBinding, peer string, err error, fallback domain.ConnectionReason) error {
	reason := fallback
	var netErr net.Error
	switch {
	case ctx.Err() != nil:
		reason = domain.ConnAborted
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		reason = domain.ConnPeerReset
	case errors.As(err, &netErr) && netErr.Timeout():
		if fallback == domain.ConnAborted {
			reason = domain.ConnReadTimeout
		}
	}
	return &domain.ConnectionError{Reason: reason, Port: binding.Port, Peer: peer, Cause: err}
}

func (h *ConnHandler) fail(log logger.Logger, event string, port int, err error) {
	reason := "unknown"
	var cerr *domain.ConnectionError
	if errors.As(err, &cerr) {
		reason = string(cerr.Reason)
	}
	log.Warn("connection closed on error", "event", event, "reason", reason, "error", err)
	h.metrics.ConnectionError(port, reason)
}

type closeWriter interface {
	CloseWrite() error
}

// linger half-closes conn and drains what the peer still sends, for at
// most lingerTimeout.
func linger(conn net.Conn) {
	cw, ok := conn.(closeWriter)
	if !ok {
		return
	}
	if err := cw.CloseWrite(); err != nil {
		return
	}
	if err := conn.SetReadDeadline(time.Now().Add(lingerTimeout)); err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, 64*1024))
}
