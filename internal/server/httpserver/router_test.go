package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/portmesh-go/internal/core/domain"
)

type fakeStatus struct {
	states []domain.ListenerState
}

func (f *fakeStatus) States() []domain.ListenerState { return f.states }

func (f *fakeStatus) Listening() int {
	n := 0
	for _, st := range f.states {
		if st.Status == domain.StatusListening {
			n++
		}
	}
	return n
}

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" && rec.Code != http.StatusForbidden {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec, resp
}

func TestRouter_Health(t *testing.T) {
	h := NewRouter(&RouterConfig{Status: &fakeStatus{}})

	rec, resp := serve(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Code != "OK" || resp.RequestID == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestRouter_Ready(t *testing.T) {
	tests := []struct {
		name   string
		states []domain.ListenerState
		want   int
	}{
		{"no listeners", nil, http.StatusServiceUnavailable},
		{"all failed", []domain.ListenerState{{Binding: domain.PortBinding{Port: 1}, Status: domain.StatusFailed}}, http.StatusServiceUnavailable},
		{"one listening", []domain.ListenerState{
			{Binding: domain.PortBinding{Port: 1}, Status: domain.StatusFailed},
			{Binding: domain.PortBinding{Port: 2}, Status: domain.StatusListening},
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(t, NewRouter(&RouterConfig{Status: &fakeStatus{states: tt.states}}), "/ready")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRouter_Listeners(t *testing.T) {
	status := &fakeStatus{states: []domain.ListenerState{
		{Binding: domain.PortBinding{Port: 80}, Addr: "0.0.0.0:80", Status: domain.StatusListening},
		{Binding: domain.PortBinding{Port: 443, TLS: true}, Status: domain.StatusFailed, Error: "bind port 443: address_in_use"},
	}}

	rec := httptest.NewRecorder()
	NewRouter(&RouterConfig{Status: status}).ServeHTTP(rec, httptest.NewRequest("GET", "/listeners", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data ListenersData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Total != 2 || resp.Data.Listening != 1 {
		t.Errorf("total/listening = %d/%d, want 2/1", resp.Data.Total, resp.Data.Listening)
	}
	if got := resp.Data.Listeners[1]; !got.Binding.TLS || got.Status != domain.StatusFailed {
		t.Errorf("listeners[1] = %+v", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics\n")
	})

	rec, _ := serve(t, NewRouter(&RouterConfig{Status: &fakeStatus{}, Metrics: metrics}), "/metrics")
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics\n" {
		t.Errorf("/metrics = %d %q", rec.Code, rec.Body.String())
	}

	rec, _ = serve(t, NewRouter(&RouterConfig{Status: &fakeStatus{}}), "/metrics")
	if rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without handler = %d, want 404", rec.Code)
	}
}

func TestRouter_AllowList(t *testing.T) {
	h := NewRouter(&RouterConfig{Status: &fakeStatus{}, AllowList: []string{"10.0.0.0/8"}})

	rec, _ := serve(t, h, "/health")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := NewRouter(&RouterConfig{Status: &fakeStatus{}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
