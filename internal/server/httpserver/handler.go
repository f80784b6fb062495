package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/portmesh-go/internal/core/domain"
	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
)

// StatusSource reports listener state. *probeserver.Supervisor satisfies it.
type StatusSource interface {
	States() []domain.ListenerState
	Listening() int
}

// Response is the JSON envelope of every admin reply.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// ListenersData is the payload of GET /listeners.
type ListenersData struct {
	Total     int                    `json:"total"`
	Listening int                    `json:"listening"`
	Listeners []domain.ListenerState `json:"listeners"`
}

type handler struct {
	status StatusSource
	logger logger.Logger
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, "OK", map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleReady(w http.ResponseWriter, r *http.Request) {
	listening := h.status.Listening()
	if listening == 0 {
		h.writeJSON(w, r, http.StatusServiceUnavailable, CodeNotReady, map[string]any{
			"status":    "not_ready",
			"listening": 0,
		})
		return
	}
	h.writeJSON(w, r, http.StatusOK, "OK", map[string]any{
		"status":    "ready",
		"listening": listening,
	})
}

func (h *handler) handleListeners(w http.ResponseWriter, r *http.Request) {
	states := h.status.States()
	listening := 0
	for _, st := range states {
		if st.Status == domain.StatusListening {
			listening++
		}
	}
	h.writeJSON(w, r, http.StatusOK, "OK", ListenersData{
		Total:     len(states),
		Listening: listening,
		Listeners: states,
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, code string, data any) {
	msg := "Success"
	if status >= 400 {
		msg = http.StatusText(status)
	}
	resp := Response{
		Code:      code,
		Message:   msg,
		RequestID: GetRequestIDFromContext(r.Context()),
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
