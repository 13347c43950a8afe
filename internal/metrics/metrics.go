package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the broker's Prometheus collectors on a dedicated registry,
// so embedding applications never collide with a global registry.
type Metrics struct {
	registry *prometheus.Registry

	Produced     *prometheus.CounterVec
	Consumed     *prometheus.CounterVec
	Acknowledged *prometheus.CounterVec
	Retried      *prometheus.CounterVec
	DeadLettered *prometheus.CounterVec
	QueueSize    *prometheus.GaugeVec
	DLQSize      *prometheus.GaugeVec

	storageRead   prometheus.Histogram
	storageCommit prometheus.Histogram
}

// New creates a Metrics with all collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hexboltmq",
			Name:      "messages_produced_total",
			Help:      "Messages pushed onto a queue.",
		}, []string{"queue"}),
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hexboltmq",
			Name:      "messages_consumed_total",
			Help:      "Messages handed to consumers via pop or pop_batch.",
		}, []string{"queue"}),
		Acknowledged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hexboltmq",
			Name:      "messages_acknowledged_total",
			Help:      "Messages acknowledged and removed from tracking.",
		}, []string{"queue"}),
		Retried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hexboltmq",
			Name:      "messages_retried_total",
			Help:      "Messages requeued with backoff after a failed delivery.",
		}, []string{"queue"}),
		DeadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hexboltmq",
			Name:      "messages_dead_lettered_total",
			Help:      "Messages moved to the dead letter queue after exhausting retries.",
		}, []string{"queue"}),
		QueueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hexboltmq",
			Name:      "queue_size",
			Help:      "Messages currently held by a queue, ready or delayed.",
		}, []string{"queue"}),
		DLQSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hexboltmq",
			Name:      "dead_letter_queue_size",
			Help:      "Records currently in a queue's dead letter region.",
		}, []string{"queue"}),
		storageRead: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hexboltmq",
			Subsystem: "storage",
			Name:      "read_duration_seconds",
			Help:      "Latency of point reads against the message store.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 14),
		}),
		storageCommit: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hexboltmq",
			Subsystem: "storage",
			Name:      "commit_duration_seconds",
			Help:      "Latency of batch commits against the message store.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 14),
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Produced, m.Consumed, m.Acknowledged, m.Retried, m.DeadLettered,
		m.QueueSize, m.DLQSize,
		m.storageRead, m.storageCommit,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for embedding applications that
// want to add their own collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRead implements the storage metrics hook.
func (m *Metrics) ObserveRead(elapsed time.Duration, _ int) {
	m.storageRead.Observe(elapsed.Seconds())
}

// ObserveCommit implements the storage metrics hook.
func (m *Metrics) ObserveCommit(elapsed time.Duration, _ int) {
	m.storageCommit.Observe(elapsed.Seconds())
}
