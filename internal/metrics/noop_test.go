package metrics

import (
	"testing"
	"time"
)

func TestNoopSink_AllMethods(t *testing.T) {
	// Verify that calling all methods on NoopSink does not panic.
	s := NewNoopSink()

	s.IngestCompleted(OutcomeCreated, 100*time.Millisecond)
	s.IngestCompleted(OutcomeDuplicate, 0)
	s.IngestCompleted(OutcomeUnauthorized, time.Second)
	s.AuthFailure(AuthReasonMissingHeader)
	s.AuthFailure(AuthReasonInvalidKey)
	s.ValidationRejected(0)
	s.ValidationRejected(3)
	s.ExecutionRecorded("n8n", "success")
	s.ExecutionRecorded("custom", "waiting")
}
