package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext carries the identifying fields of one wire command so every
// log line of the request leads with them.
type LogContext struct {
	TraceID   string
	SpanID    string
	Verb      string // wire verb: READ, WRITE, VIEW, ...
	Username  string
	ClientIP  string // address without port
	StartTime time.Time
}

// NewLogContext starts a LogContext for a freshly accepted connection.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{ClientIP: clientIP, StartTime: time.Now()}
}

// WithContext attaches lc to ctx.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext returns ctx's LogContext, nil when absent.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// Clone copies lc; nil stays nil.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	out := *lc
	return &out
}

// WithVerb returns a copy tagged with the dispatched verb.
func (lc *LogContext) WithVerb(verb string) *LogContext {
	out := lc.Clone()
	if out != nil {
		out.Verb = verb
	}
	return out
}

// WithUser returns a copy tagged with the authenticated user.
func (lc *LogContext) WithUser(username string) *LogContext {
	out := lc.Clone()
	if out != nil {
		out.Username = username
	}
	return out
}

// WithTrace returns a copy tagged with the span's identifiers.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	out := lc.Clone()
	if out != nil {
		out.TraceID = traceID
		out.SpanID = spanID
	}
	return out
}

// DurationMs is the fractional milliseconds since the request started.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
