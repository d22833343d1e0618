package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or propagate
// errors. If the metrics backend is unavailable, implementations log warnings
// and continue.
type Sink interface {
	// Webhook ingestion metrics
	IngestCompleted(outcome string, duration time.Duration)
	AuthFailure(reason string)
	ValidationRejected(fieldErrors int)
	ExecutionRecorded(platform, status string)
}

// Outcome constants for IngestCompleted.
const (
	OutcomeCreated      = "created"
	OutcomeDuplicate    = "duplicate"
	OutcomeInvalid      = "invalid"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// Reason constants for AuthFailure.
const (
	AuthReasonMissingHeader = "missing_header"
	AuthReasonInvalidKey    = "invalid_key"
)
