package ir

// Version constants for the IR schema and tracer.
const (
	// IRVersion is the IR schema version recorded with persisted graphs.
	IRVersion = "1"

	// TracerVersion is the symtrace tracer version.
	TracerVersion = "0.1.0"
)
