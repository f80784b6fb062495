// Package logger provides structured logging for PortMesh.
//
// This package wraps the standard library log/slog:
//
//   - logger.go: Logger interface, handler configuration, dynamic level
//   - context.go: Context-aware logging with connection ids
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime (config reload)
//   - net.Addr values rendered as "host:port" strings
//   - Context propagation of connection ids
//
// slog handlers serialise writes to their output, so a single Logger
// is safe to share between every listener and connection goroutine.
package logger
