package logkey

// Shared keys for structured log attributes so the fields stay greppable
// across packages.
const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
)
