package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

var connIDKey contextKey

// WithConnID returns a context carrying a connection id. Loggers bound to
// the context with WithContext add it to every record as "conn_id".
func WithConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connIDKey, id)
}

// ConnIDFromContext returns the connection id carried by ctx, if any.
func ConnIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(connIDKey).(string)
	return id
}

// contextHandler adds context-scoped attributes to each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := ConnIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("conn_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
