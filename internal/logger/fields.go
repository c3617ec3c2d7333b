package logger

import "log/slog"

// Standard field keys for structured logging. Use these consistently across
// the name server, storage servers, and client so logs aggregate cleanly.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Command dispatch
	KeyVerb   = "verb"   // wire verb: READ, WRITE, VIEW, ...
	KeyArgs   = "args"   // raw command arguments
	KeyReply  = "reply"  // first line of the reply sent back
	KeyStatus = "status" // coarse outcome: ok, denied, error

	// Files and sentences
	KeyFilename  = "filename"
	KeyOwner     = "owner"
	KeySentence  = "sentence"   // sentence index in a WRITE session
	KeyWordIndex = "word_index" // word index inside a sentence edit
	KeyTag       = "tag"        // checkpoint tag
	KeySize      = "size"
	KeyFiles     = "files" // number of files in a listing or report

	// Cluster topology
	KeyServerID   = "ss_id" // storage server id
	KeyAddress    = "address"
	KeyPort       = "port"
	KeyActive     = "active"
	KeyEvicted    = "evicted" // number of servers evicted in a sweep
	KeyTargetUser = "target_user"

	// Client identification
	KeyClientIP = "client_ip"
	KeyUsername = "username"

	// Session and connection
	KeySessionID    = "session_id"
	KeyConnectionID = "connection_id"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyBytes      = "bytes"
)

// Field constructors for type safety.

// TraceID returns a slog.Attr for the OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for the OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Verb returns a slog.Attr for the wire verb being handled
func Verb(v string) slog.Attr {
	return slog.String(KeyVerb, v)
}

// Filename returns a slog.Attr for a file name
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Owner returns a slog.Attr for a file owner
func Owner(name string) slog.Attr {
	return slog.String(KeyOwner, name)
}

// Sentence returns a slog.Attr for a sentence index
func Sentence(n int) slog.Attr {
	return slog.Int(KeySentence, n)
}

// Tag returns a slog.Attr for a checkpoint tag
func Tag(t string) slog.Attr {
	return slog.String(KeyTag, t)
}

// Size returns a slog.Attr for a size in bytes
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// ServerID returns a slog.Attr for a storage server id
func ServerID(id int) slog.Attr {
	return slog.Int(KeyServerID, id)
}

// Address returns a slog.Attr for a network address
func Address(addr string) slog.Attr {
	return slog.String(KeyAddress, addr)
}

// Port returns a slog.Attr for a TCP port
func Port(p int) slog.Attr {
	return slog.Int(KeyPort, p)
}

// ClientIP returns a slog.Attr for the client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Username returns a slog.Attr for the authenticated username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// TargetUser returns a slog.Attr for the user an ACL change applies to
func TargetUser(name string) slog.Attr {
	return slog.String(KeyTargetUser, name)
}

// SessionID returns a slog.Attr for a session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ConnectionID returns a slog.Attr for a connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or the zero Attr when err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Bytes returns a slog.Attr for a byte count
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Files returns a slog.Attr for a file count
func Files(n int) slog.Attr {
	return slog.Int(KeyFiles, n)
}

// Evicted returns a slog.Attr for the number of servers evicted in a sweep
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}
