package handler

import (
	"context"
	"log/slog"
)

// requestIDHandler adds the request id assigned by RequestLogger to every
// record logged with a request context.
type requestIDHandler struct {
	slog.Handler
}

// WithRequestID wraps h so that records logged through the *Context methods
// carry a request_id attribute.
func WithRequestID(h slog.Handler) slog.Handler {
	return requestIDHandler{Handler: h}
}

func (h requestIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestIDHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h requestIDHandler) WithGroup(name string) slog.Handler {
	return requestIDHandler{Handler: h.Handler.WithGroup(name)}
}
