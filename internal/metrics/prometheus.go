package metrics

import (
	"log"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	ingestTotal        *prometheus.CounterVec
	ingestDuration     prometheus.Histogram
	authFailuresTotal  *prometheus.CounterVec
	validationRejected *prometheus.CounterVec
	executionsRecorded *prometheus.CounterVec
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}

	s.ingestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roisheet_webhook_requests_total",
		Help: "Total number of webhook ingestion requests by outcome.",
	}, []string{"outcome"})

	s.ingestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roisheet_webhook_request_duration_seconds",
		Help:    "Webhook request handling latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	s.authFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roisheet_webhook_auth_failures_total",
		Help: "Total number of rejected webhook credentials by reason.",
	}, []string{"reason"})

	s.validationRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roisheet_webhook_validation_rejections_total",
		Help: "Total number of payloads rejected by schema validation, by field error count.",
	}, []string{"field_errors"})

	s.executionsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roisheet_executions_recorded_total",
		Help: "Total number of execution records created, by platform and status.",
	}, []string{"platform", "status"})

	s.register(reg, s.ingestTotal, "roisheet_webhook_requests_total")
	s.register(reg, s.ingestDuration, "roisheet_webhook_request_duration_seconds")
	s.register(reg, s.authFailuresTotal, "roisheet_webhook_auth_failures_total")
	s.register(reg, s.validationRejected, "roisheet_webhook_validation_rejections_total")
	s.register(reg, s.executionsRecorded, "roisheet_executions_recorded_total")

	return s
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

func (s *PrometheusSink) IngestCompleted(outcome string, duration time.Duration) {
	s.ingestTotal.WithLabelValues(outcome).Inc()
	s.ingestDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) AuthFailure(reason string) {
	s.authFailuresTotal.WithLabelValues(reason).Inc()
}

func (s *PrometheusSink) ValidationRejected(fieldErrors int) {
	s.validationRejected.WithLabelValues(strconv.Itoa(fieldErrors)).Inc()
}

func (s *PrometheusSink) ExecutionRecorded(platform, status string) {
	s.executionsRecorded.WithLabelValues(platform, status).Inc()
}

// Verify PrometheusSink implements Sink.
var _ Sink = (*PrometheusSink)(nil)
