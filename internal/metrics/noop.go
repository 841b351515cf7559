package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordDirectoryOperation(
	backend, operation, result string,
	duration time.Duration,
) {
}

func (n *NoopMetrics) RecordAuthAttempt(backend, result string, duration time.Duration) {}
func (n *NoopMetrics) RecordModificationStep(step string, success bool)               {}

func (n *NoopMetrics) RecordHTTPRequest(
	method, path string,
	status int,
	duration time.Duration,
) {
}
