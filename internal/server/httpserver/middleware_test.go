package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/portmesh-go/internal/telemetry/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestIDFromContext(r.Context()) == "" {
			t.Error("expected request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates request ID when not provided", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		requestID := rec.Header().Get("X-Request-ID")
		if !strings.HasPrefix(requestID, "req-") {
			t.Errorf("expected request ID to start with 'req-', got %s", requestID)
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", "existing-id-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "existing-id-123" {
			t.Errorf("expected 'existing-id-123', got %s", got)
		}
	})
}

func TestChain(t *testing.T) {
	var order []int
	mark := func(n int) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, n)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, 4)
		w.WriteHeader(http.StatusOK)
	}), mark(1), mark(2), mark(3))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

	expected := []int{1, 2, 3, 4}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d", len(expected), len(order))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("expected order[%d] = %d, got %d", i, v, order[i])
		}
	}
}

func TestNetworkACL(t *testing.T) {
	tests := []struct {
		name       string
		allowList  []string
		remoteAddr string
		forwarded  string
		want       int
	}{
		{"empty allowlist", nil, "192.168.1.100:12345", "", http.StatusOK},
		{"single IP", []string{"192.168.1.100"}, "192.168.1.100:12345", "", http.StatusOK},
		{"CIDR", []string{"10.0.0.0/8"}, "10.1.2.3:12345", "", http.StatusOK},
		{"denied", []string{"192.168.1.0/24"}, "10.0.0.1:12345", "", http.StatusForbidden},
		{"IPv6", []string{"2001:db8::/32"}, "[2001:db8::1]:12345", "", http.StatusOK},
		{"mapped IPv4", []string{"127.0.0.1"}, "[::ffff:127.0.0.1]:12345", "", http.StatusOK},
		{"forwarded header ignored", []string{"10.0.0.0/8"}, "192.168.1.1:12345", "10.0.0.1", http.StatusForbidden},
		{"invalid entries skipped", []string{"nope", "10.0.0.0/99", "10.0.0.1"}, "10.0.0.1:1", "", http.StatusOK},
		{"unparsable peer", []string{"10.0.0.1"}, "garbage", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NetworkACL(&NetworkACLConfig{AllowList: tt.allowList, Logger: logger.Discard()})(okHandler())

			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden && rec.Header().Get("X-Error-Code") != CodeForbidden {
				t.Errorf("X-Error-Code = %q, want %s", rec.Header().Get("X-Error-Code"), CodeForbidden)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		handler := Recover(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("test panic")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		if rec.Header().Get("X-Error-Code") != CodeInternal {
			t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
		}
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Recover(logger.Discard())(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})
}

func TestAccess_CapturesStatus(t *testing.T) {
	handler := Access(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:8080", "::1"},
		{"10.0.0.5", "10.0.0.5"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = tt.remote
		if got := getClientIP(req); got != tt.want {
			t.Errorf("getClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
