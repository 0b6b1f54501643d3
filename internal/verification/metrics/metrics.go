package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Signal gathering latencies by source
	SignalLatency *prometheus.HistogramVec

	// Decisions by kind and outcome
	Decisions *prometheus.CounterVec

	// Overall verify latency including signal gathering
	VerifyLatency prometheus.Histogram

	// Batch items by terminal result
	BatchItems *prometheus.CounterVec
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		SignalLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "haulcheck_verification_signal_duration_seconds",
			Help:    "Duration of signal gathering by source",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}), // source: "extractor", "verifier"

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "haulcheck_verification_decisions_total",
			Help: "Total decisions by document kind and outcome",
		}, []string{"kind", "decision"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "haulcheck_verification_verify_duration_seconds",
			Help:    "Duration of full single-document verification",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),

		BatchItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "haulcheck_verification_batch_items_total",
			Help: "Total batch verification items by result",
		}, []string{"result"}), // result: "ok", "failed"
	}
}

// ObserveSignalLatency records the duration of one extractor/verifier call.
func (m *Metrics) ObserveSignalLatency(source string, d time.Duration) {
	if m != nil {
		m.SignalLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementDecision records a decision outcome.
func (m *Metrics) IncrementDecision(kind, decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(kind, decision).Inc()
	}
}

// ObserveVerifyLatency records the total verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}

// IncrementBatchItem records one finished batch item.
func (m *Metrics) IncrementBatchItem(result string) {
	if m != nil {
		m.BatchItems.WithLabelValues(result).Inc()
	}
}
