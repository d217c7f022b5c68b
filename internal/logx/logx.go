package logx

import (
	"context"

	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	windowKey contextKey = iota
	requestKey
)

// WithWindow annotates the logger with the window name if present.
func WithWindow(ctx context.Context, name schema.WindowName) pslog.Logger {
	log := pslog.Ctx(ctx)
	if name != "" {
		if current, ok := ctx.Value(windowKey).(schema.WindowName); ok && current == name {
			return log
		}
		log = log.With("window", name)
	}
	return log
}

// WithLocation annotates the logger with a content location when available.
func WithLocation(log pslog.Logger, location schema.ContentLocation) pslog.Logger {
	if location != "" {
		log = log.With("location", location)
	}
	return log
}

// ContextWithWindow stores the window marker on the context for log de-duplication.
func ContextWithWindow(ctx context.Context, name schema.WindowName) context.Context {
	if ctx == nil || name == "" {
		return ctx
	}
	return context.WithValue(ctx, windowKey, name)
}

// ContextWithRequest stores the request id on the context and binds it to
// the context logger.
func ContextWithRequest(ctx context.Context, id schema.RequestID) context.Context {
	if ctx == nil || id == "" {
		return ctx
	}
	if current, ok := ctx.Value(requestKey).(schema.RequestID); ok && current == id {
		return ctx
	}
	ctx = pslog.ContextWithLogger(ctx, pslog.Ctx(ctx).With("request", id))
	return context.WithValue(ctx, requestKey, id)
}

// RequestFromContext returns the request id stored on the context.
func RequestFromContext(ctx context.Context) schema.RequestID {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestKey).(schema.RequestID)
	return id
}

// ContextWithWindowLogger attaches the logger and window marker to the context.
func ContextWithWindowLogger(ctx context.Context, log pslog.Logger, name schema.WindowName) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithWindow(ctx, name)
}
