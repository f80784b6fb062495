//go:build !unix

package probeserver

import (
	"context"
	"net"
	"strconv"
)

// listen falls back to the standard listener. The backlog is chosen by
// the operating system on these platforms.
func listen(ctx context.Context, host string, port, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
