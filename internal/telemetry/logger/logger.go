package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

// slogLogger binds a slog.Logger to the context its records are emitted with.
type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// level is shared by every logger built with New so a config reload
// changes verbosity process-wide.
var level = new(slog.LevelVar)

// New creates a logger. Unknown levels and formats are rejected.
func New(cfg Config) (Logger, error) {
	lv, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "console":
		handler = slog.NewTextHandler(output, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level.Set(lv)
	return wrap(slog.New(contextHandler{handler})), nil
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return wrap(slog.New(slog.DiscardHandler))
}

func wrap(l *slog.Logger) *slogLogger {
	return &slogLogger{logger: l, ctx: context.Background()}
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLevel changes the level of every logger created by New.
// An unknown level leaves the current one in place.
func SetLevel(s string) error {
	lv, err := ParseLevel(s)
	if err != nil {
		return err
	}
	level.Set(lv)
	return nil
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch lv := level.Level(); {
	case lv <= slog.LevelDebug:
		return "debug"
	case lv <= slog.LevelInfo:
		return "info"
	case lv <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.ctx, msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.InfoContext(l.ctx, msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.ctx, msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

// WithContext returns a logger whose records carry the context values
// known to the handler, such as the connection id.
func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

// replaceAttr renders net.Addr values as "host:port" instead of a JSON
// object.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	if addr, ok := a.Value.Any().(net.Addr); ok && addr != nil {
		return slog.String(a.Key, addr.String())
	}
	return a
}

var defaultLogger atomic.Pointer[slogLogger]

func init() {
	defaultLogger.Store(wrap(slog.Default()))
}

// SetDefault makes l the process default, including for code that logs
// through log/slog or the standard log package.
func SetDefault(l Logger) {
	sl, ok := l.(*slogLogger)
	if !ok {
		return
	}
	defaultLogger.Store(sl)
	slog.SetDefault(sl.logger)
}

// Default returns the process default logger.
func Default() Logger {
	return defaultLogger.Load()
}
