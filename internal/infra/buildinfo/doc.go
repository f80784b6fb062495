// Package buildinfo exposes build-time version information.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/portmesh-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/portmesh-go/internal/infra/buildinfo.Commit=abc123"
//
// When Commit or GoVersion are not injected they are filled from the
// module build information embedded by the Go toolchain.
package buildinfo
