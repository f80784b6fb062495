package httpserver

import (
	"net/http"

	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Status reports listener state for /ready and /listeners.
	Status StatusSource

	// Metrics serves /metrics. The route is not registered when nil.
	Metrics http.Handler

	// Logger for request logging.
	Logger logger.Logger

	// AllowList is the IP/CIDR allow-list (empty = no restriction).
	AllowList []string
}

// NewRouter creates the admin router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	h := &handler{status: cfg.Status, logger: log}

	// Order: Recover -> RequestID -> NetworkACL -> Access -> Handler
	middlewares := []Middleware{Recover(log), RequestID()}
	if len(cfg.AllowList) > 0 {
		middlewares = append(middlewares, NetworkACL(&NetworkACLConfig{
			AllowList: cfg.AllowList,
			Logger:    log,
		}))
	}
	middlewares = append(middlewares, Access(log))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /ready", h.handleReady)
	mux.HandleFunc("GET /listeners", h.handleListeners)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return Chain(mux, middlewares...)
}
