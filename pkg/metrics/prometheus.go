package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signals       *prometheus.CounterVec
	enqueued      prometheus.Counter
	deliveries    *prometheus.CounterVec
	sendAttempts  *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	cutoffs       prometheus.Counter
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_total",
				Help: "Interval results carrying a direction",
			},
			[]string{"direction"},
		),
		enqueued: f.NewCounter(
			prometheus.CounterOpts{
				Name: "finsignal_messages_enqueued_total",
				Help: "Notifications that reserved budget and entered the delivery queue",
			},
		),
		deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_messages_delivered_total",
				Help: "Final delivery outcome per notification",
			},
			[]string{"result"},
		),
		sendAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_send_attempts_total",
				Help: "Individual transport send attempts",
			},
			[]string{"result"},
		),
		fetchFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_fetch_failures_total",
				Help: "Intervals skipped after exhausting fetch retries",
			},
			[]string{"interval"},
		),
		cutoffs: f.NewCounter(
			prometheus.CounterOpts{
				Name: "finsignal_budget_cutoffs_total",
				Help: "Instruments that found the run budget exhausted",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignal(direction string) {
	r.signals.WithLabelValues(direction).Inc()
}

func (r *Recorder) RecordEnqueued() {
	r.enqueued.Inc()
}

// RecordDelivery counts a final outcome: "delivered" or "dropped".
func (r *Recorder) RecordDelivery(result string) {
	r.deliveries.WithLabelValues(result).Inc()
}

// RecordSendAttempt counts one attempt: "ok", "retry_after", "transient" or "permanent".
func (r *Recorder) RecordSendAttempt(result string) {
	r.sendAttempts.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordFetchFailure(interval string) {
	r.fetchFailures.WithLabelValues(interval).Inc()
}

func (r *Recorder) RecordCutoff() {
	r.cutoffs.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordSignal(string)           {}
func (Nop) RecordEnqueued()               {}
func (Nop) RecordDelivery(string)         {}
func (Nop) RecordSendAttempt(string)      {}
func (Nop) RecordFetchFailure(string)     {}
func (Nop) RecordCutoff()                 {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
