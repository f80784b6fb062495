//go:build unix

package probeserver

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listen opens a TCP listening socket with SO_REUSEADDR and an explicit
// backlog, which net.Listen does not expose.
func listen(ctx context.Context, host string, port, backlog int) (net.Listener, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	family, sa, err := sockaddr(host, port)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	// FileListener dups the descriptor; the original is closed with f.
	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp-listener:%d", port))
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func sockaddr(host string, port int) (int, unix.Sockaddr, error) {
	if host == "" {
		return unix.AF_INET, &unix.SockaddrInet4{Port: port}, nil
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return 0, nil, fmt.Errorf("bind host %q is not an IP address", host)
	}
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return unix.AF_INET, sa, nil
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return unix.AF_INET6, sa, nil
}
