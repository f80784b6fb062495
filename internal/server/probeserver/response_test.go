package probeserver

import (
	"strconv"
	"strings"
	"testing"
)

func TestResponse(t *testing.T) {
	tests := []struct {
		tls  bool
		want string
	}{
		{
			tls:  false,
			want: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 24\r\n\r\nHello from Non-SSL Port!",
		},
		{
			tls:  true,
			want: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 20\r\n\r\nHello from SSL Port!",
		},
	}

	for _, tt := range tests {
		if got := string(Response(tt.tls)); got != tt.want {
			t.Errorf("Response(%v) = %q, want %q", tt.tls, got, tt.want)
		}
	}
}

func TestResponse_ContentLengthMatchesBody(t *testing.T) {
	for _, tls := range []bool{false, true} {
		resp := string(Response(tls))
		head, body, ok := strings.Cut(resp, "\r\n\r\n")
		if !ok {
			t.Fatalf("response has no header terminator: %q", resp)
		}
		want := "Content-Length: " + strconv.Itoa(len(body))
		if !strings.Contains(head, want) {
			t.Errorf("header %q does not contain %q", head, want)
		}
	}
}
