package probeserver

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/yndnr/portmesh-go/internal/core/domain"
	"github.com/yndnr/portmesh-go/internal/infra/tlsctx"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.ReadTimeout = 200 * time.Millisecond
	cfg.WriteTimeout = time.Second
	cfg.HandshakeTimeout = time.Second
	cfg.GracePeriod = time.Second
	return cfg
}

func testTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	certPEM, keyPEM, err := tlsctx.GenerateSelfSigned([]string{"127.0.0.1", "localhost"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateSelfSigned() error = %v", err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("X509KeyPair() error = %v", err)
	}
	return tlsctx.ServerConfig(cert)
}

func clientTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
}

// startListener runs a listener on an ephemeral port until the test ends.
func startListener(t *testing.T, binding domain.PortBinding, tlsConfig *tls.Config, cfg Config, opts ...Option) (*Listener, string) {
	t.Helper()

	l, err := NewListener(binding, tlsConfig, cfg, opts...)
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(context.Background()) }()

	select {
	case <-l.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not become ready")
	}
	if st := l.State(); st.Status != domain.StatusListening {
		t.Fatalf("listener status = %s (%s), want listening", st.Status, st.Error)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Drain(ctx)
		<-runErr
	})
	return l, l.Addr().String()
}

// roundTrip connects, optionally sends payload and returns everything
// received until the server closes the connection.
func roundTrip(t *testing.T, conn net.Conn, payload string) string {
	t.Helper()
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))
	if payload != "" {
		if _, err := conn.Write([]byte(payload)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func dialPlain(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", addr, err)
	}
	return conn
}

func dialTLS(t *testing.T, addr string) net.Conn {
	t.Helper()
	d := &net.Dialer{Timeout: 2 * time.Second}
	conn, err := tls.DialWithDialer(d, "tcp", addr, clientTLSConfig())
	if err != nil {
		t.Fatalf("tls.Dial(%s) error = %v", addr, err)
	}
	return conn
}

// occupyPort holds a listening socket on a free loopback port.
func occupyPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return port
}

// readUntilClosed is roundTrip for connections the server may reset; read
// errors end the exchange instead of failing the test.
func readUntilClosed(conn net.Conn, payload string) string {
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))
	if payload != "" {
		_, _ = conn.Write([]byte(payload))
	}
	data, _ := io.ReadAll(conn)
	return string(data)
}
