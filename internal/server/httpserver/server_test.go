package httpserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s := New("127.0.0.1:0", http.NotFoundHandler())
	if s == nil {
		t.Fatal("New returned nil")
	}
	if s.httpServer.ReadHeaderTimeout != readHeaderTimeout {
		t.Errorf("ReadHeaderTimeout = %v, want %v", s.httpServer.ReadHeaderTimeout, readHeaderTimeout)
	}
	if s.Addr() != nil {
		t.Error("Addr() should be nil before Listen")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	s := New("127.0.0.1:0", http.NotFoundHandler())
	if err := s.Serve(); err == nil {
		t.Error("Serve() before Listen should fail")
	}
}

func TestServer_Shutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	s := New("127.0.0.1:0", handler)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve()
	}()

	resp, err := http.Get(fmt.Sprintf("http://%s/", s.Addr()))
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Serve returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}
