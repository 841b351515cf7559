package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Directory operations, labelled by backend, operation and Kind(err)
	RecordDirectoryOperation(backend, operation, result string, duration time.Duration)

	// Authentication
	RecordAuthAttempt(backend, result string, duration time.Duration)

	// Modification orchestration
	RecordModificationStep(step string, success bool)

	// HTTP
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}
