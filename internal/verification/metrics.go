package verification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records verification throughput. A nil *Metrics is a no-op.
type Metrics struct {
	Submissions     *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
}

// NewMetrics registers the verification metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_verification_submissions_total",
			Help: "Verification submissions by document type and outcome",
		}, []string{"document_type", "outcome"}),

		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_verification_provider_duration_seconds",
			Help:    "Duration of verification provider calls by document type",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"document_type"}),
	}
}

// IncrementSubmission counts a finished submission.
func (m *Metrics) IncrementSubmission(documentType, outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(documentType, outcome).Inc()
	}
}

// ObserveProviderLatency records the duration of a provider call.
func (m *Metrics) ObserveProviderLatency(documentType string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(documentType).Observe(d.Seconds())
	}
}
