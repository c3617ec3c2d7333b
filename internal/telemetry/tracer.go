package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for command tracing.
// Keys follow OpenTelemetry semantic conventions where applicable;
// quillfs.* keys cover the wire protocol, registry.* the server registry.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Command attributes
	// ========================================================================
	AttrVerb     = "quillfs.verb"     // CREATE, READ, WRITE, DELETE, ...
	AttrFilename = "quillfs.filename" // target file
	AttrSentence = "quillfs.sentence" // sentence index in a write session
	AttrTag      = "quillfs.tag"      // checkpoint tag
	AttrStatus   = "quillfs.status"   // first line of the reply
	AttrSize     = "quillfs.size"     // payload size in bytes

	// ========================================================================
	// Topology attributes
	// ========================================================================
	AttrServerID   = "registry.ss_id" // storage server id
	AttrServerAddr = "registry.addr"  // storage server host:port
	AttrActive     = "registry.active"

	// ========================================================================
	// User attributes
	// ========================================================================
	AttrUsername = "user.name"
)

// Span names for operations.
// Format: <component>.<operation>.
const (
	// Root span for one wire command on the name server
	SpanCommand = "quillfs.command"

	// Registry operations
	SpanRegister = "registry.register"
	SpanSweep    = "registry.sweep"

	// Proxy sessions (interactive WRITE bridged to a storage server)
	SpanProxy = "proxy.session"

	// Storage server operations
	SpanStorageCommand = "storage.command"
	SpanCheckpoint     = "storage.checkpoint"
	SpanRollback       = "storage.rollback"
	SpanUndo           = "storage.undo"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Verb returns an attribute for the wire verb
func Verb(verb string) attribute.KeyValue {
	return attribute.String(AttrVerb, verb)
}

// Filename returns an attribute for the target filename
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Sentence returns an attribute for a sentence index
func Sentence(n int) attribute.KeyValue {
	return attribute.Int(AttrSentence, n)
}

// Tag returns an attribute for a checkpoint tag
func Tag(tag string) attribute.KeyValue {
	return attribute.String(AttrTag, tag)
}

// ReplyStatus returns an attribute for the first line of the reply
func ReplyStatus(status string) attribute.KeyValue {
	return attribute.String(AttrStatus, status)
}

// Size returns an attribute for a payload size
func Size(n int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, n)
}

// ServerID returns an attribute for a storage server id
func ServerID(id int) attribute.KeyValue {
	return attribute.Int(AttrServerID, id)
}

// ServerAddr returns an attribute for a storage server address
func ServerAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrServerAddr, addr)
}

// Active returns an attribute for the number of active storage servers
func Active(n int) attribute.KeyValue {
	return attribute.Int(AttrActive, n)
}

// Username returns an attribute for the authenticated username
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// StartCommandSpan starts a span for one wire command.
// The span is named quillfs.<VERB> and carries the verb attribute.
func StartCommandSpan(ctx context.Context, verb string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Verb(verb),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "quillfs."+verb, trace.WithAttributes(allAttrs...))
}

// StartRegistrySpan starts a span for a registry operation (register, sweep).
func StartRegistrySpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "registry."+operation, trace.WithAttributes(attrs...))
}

// StartProxySpan starts a span for a proxied write session.
func StartProxySpan(ctx context.Context, ssID int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		ServerID(ssID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanProxy, trace.WithAttributes(allAttrs...))
}

// StartStorageSpan starts a span for a storage server operation.
func StartStorageSpan(ctx context.Context, verb string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Verb(verb),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "storage."+verb, trace.WithAttributes(allAttrs...))
}
