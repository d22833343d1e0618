package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) IngestCompleted(outcome string, duration time.Duration) {}
func (n *NoopSink) AuthFailure(reason string)                              {}
func (n *NoopSink) ValidationRejected(fieldErrors int)                     {}
func (n *NoopSink) ExecutionRecorded(platform, status string)              {}

// Verify NoopSink implements Sink interface.
var _ Sink = (*NoopSink)(nil)
