package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is the metric name prefix.
const Namespace = "portmesh"

// listenerStatuses are the values of the status label, in lifecycle order.
var listenerStatuses = []string{"starting", "listening", "failed", "stopped"}

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	connectionsAccepted *prometheus.CounterVec
	connectionsRejected *prometheus.CounterVec
	handshakeFailures   *prometheus.CounterVec
	connectionErrors    *prometheus.CounterVec
	connectionsActive   *prometheus.GaugeVec
	connectionDuration  *prometheus.HistogramVec
	listenerStatus      *prometheus.GaugeVec
}

// NewRegistry creates a registry with all PortMesh metrics plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		connectionsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_accepted_total",
			Help:      "Connections accepted, by port and TLS mode.",
		}, []string{"port", "tls"}),
		connectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections closed by admission control before handling.",
		}, []string{"port"}),
		handshakeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tls_handshake_failures_total",
			Help:      "Failed TLS handshakes.",
		}, []string{"port"}),
		connectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connection_errors_total",
			Help:      "Per-connection read/write failures, by reason.",
		}, []string{"port", "reason"}),
		connectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connections_active",
			Help:      "Connections currently being handled.",
		}, []string{"port"}),
		connectionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "connection_duration_seconds",
			Help:      "Time from accept to close.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"port"}),
		listenerStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "listener_status",
			Help:      "1 for the current status of each listener, 0 otherwise.",
		}, []string{"port", "status"}),
	}

	r.reg.MustRegister(
		r.connectionsAccepted,
		r.connectionsRejected,
		r.handshakeFailures,
		r.connectionErrors,
		r.connectionsActive,
		r.connectionDuration,
		r.listenerStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Gatherer returns the underlying registry for scraping or tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// ConnectionAccepted records an accepted connection.
func (r *Registry) ConnectionAccepted(port int, tls bool) {
	if r == nil {
		return
	}
	r.connectionsAccepted.WithLabelValues(strconv.Itoa(port), strconv.FormatBool(tls)).Inc()
}

// ConnectionRejected records a connection dropped by admission control.
func (r *Registry) ConnectionRejected(port int) {
	if r == nil {
		return
	}
	r.connectionsRejected.WithLabelValues(strconv.Itoa(port)).Inc()
}

// HandshakeFailed records a failed TLS handshake.
func (r *Registry) HandshakeFailed(port int) {
	if r == nil {
		return
	}
	r.handshakeFailures.WithLabelValues(strconv.Itoa(port)).Inc()
}

// ConnectionError records a per-connection I/O failure.
func (r *Registry) ConnectionError(port int, reason string) {
	if r == nil {
		return
	}
	r.connectionErrors.WithLabelValues(strconv.Itoa(port), reason).Inc()
}

// ConnectionOpened increments the active connection gauge and returns a
// func that decrements it and observes the connection duration.
func (r *Registry) ConnectionOpened(port int) (done func()) {
	if r == nil {
		return func() {}
	}
	label := strconv.Itoa(port)
	start := time.Now()
	r.connectionsActive.WithLabelValues(label).Inc()
	return func() {
		r.connectionsActive.WithLabelValues(label).Dec()
		r.connectionDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}
}

// SetListenerStatus marks status as the current status of the listener on port.
func (r *Registry) SetListenerStatus(port int, status string) {
	if r == nil {
		return
	}
	label := strconv.Itoa(port)
	for _, s := range listenerStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		r.listenerStatus.WithLabelValues(label, s).Set(v)
	}
}
