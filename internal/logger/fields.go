package logger

import "log/slog"

// Standard field keys for structured logging. Keep log statements
// across the engine using these keys consistently so output stays
// greppable and aggregatable.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Coverage Data Engine
	// ========================================================================
	KeyBasename      = "basename"      // Configured base filename for a CoverageData
	KeyDataFilename  = "data_filename" // Actual on-disk filename, including any suffix
	KeyContext       = "context"       // Measurement context name (test name, process label)
	KeySchemaVersion = "schema_version"
	KeyFileCount     = "file_count"
	KeyLineCount     = "line_count"
	KeyArcCount      = "arc_count"
	KeyPid           = "pid"
	KeyInMemory      = "in_memory"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyOperation  = "operation"   // Sub-operation type for complex operations
	KeyPath       = "path"        // File path under measurement
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Basename returns a slog.Attr for a CoverageData's configured base
// filename.
func Basename(name string) slog.Attr {
	return slog.String(KeyBasename, name)
}

// DataFilename returns a slog.Attr for the actual on-disk filename in
// use, including any parallel-mode suffix.
func DataFilename(name string) slog.Attr {
	return slog.String(KeyDataFilename, name)
}

// Context returns a slog.Attr for a measurement context name.
func Context(name string) slog.Attr {
	return slog.String(KeyContext, name)
}

// SchemaVersion returns a slog.Attr for a store's schema version.
func SchemaVersion(v int) slog.Attr {
	return slog.Int(KeySchemaVersion, v)
}

// FileCount returns a slog.Attr for a count of measured files.
func FileCount(n int) slog.Attr {
	return slog.Int(KeyFileCount, n)
}

// LineCount returns a slog.Attr for a count of measured lines.
func LineCount(n int) slog.Attr {
	return slog.Int(KeyLineCount, n)
}

// ArcCount returns a slog.Attr for a count of measured arcs.
func ArcCount(n int) slog.Attr {
	return slog.Int(KeyArcCount, n)
}

// Pid returns a slog.Attr for a process id, used in fork-detection
// logging.
func Pid(pid int) slog.Attr {
	return slog.Int(KeyPid, pid)
}

// InMemory returns a slog.Attr reporting whether a store has no
// backing file.
func InMemory(b bool) slog.Attr {
	return slog.Bool(KeyInMemory, b)
}

// Path returns a slog.Attr for a file path under measurement.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// DurationMsAttr returns a slog.Attr for duration in milliseconds.
func DurationMsAttr(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Operation returns a slog.Attr for a sub-operation type.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}
