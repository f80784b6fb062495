// Package command defines the portmesh-server command line with
// urfave/cli/v2:
//
//   - serve: run the listeners (default action)
//   - resolve: print the bindings a port expression expands to
//   - config: show the merged configuration or check a file
//   - gen-cert: write a self-signed certificate/key pair
//   - status: query a running server's admin API
//   - version: print build information
package command
