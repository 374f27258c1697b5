package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// Metrics groups all Prometheus instruments used across the pipeline.
// Registered once at startup via New(); passed by pointer wherever needed.
// Each binary registers the full set and simply leaves the instruments it
// never touches at zero.
type Metrics struct {
	ApplicationsAdmitted   *prometheus.CounterVec
	ApplicationsDispatched *prometheus.CounterVec
	ApplicationsDropped    *prometheus.CounterVec
	ApplicationsProcessed  *prometheus.CounterVec
	ApplicationsFailed     prometheus.Counter
	QueueDepthPriority     prometheus.Gauge
	QueueDepthMain         prometheus.Gauge
	QueueDepthSecondary    prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ApplicationsAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applications_admitted_total",
			Help: "Total number of applications accepted at the submission boundary.",
		}, []string{"tier"}),

		ApplicationsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applications_dispatched_total",
			Help: "Total number of applications released downstream by the scheduler.",
		}, []string{"tier"}),

		ApplicationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applications_dropped_total",
			Help: "Total number of dequeued applications dropped during shutdown.",
		}, []string{"tier"}),

		ApplicationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applications_processed_total",
			Help: "Total number of applications fully processed by the worker pool.",
		}, []string{"tier"}),

		ApplicationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "applications_failed_total",
			Help: "Total number of applications that failed validation or persistence.",
		}),

		QueueDepthPriority: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth_priority",
			Help: "Current number of items in the priority tier queue.",
		}),
		QueueDepthMain: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth_main",
			Help: "Current number of items in the main tier queue.",
		}),
		QueueDepthSecondary: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth_secondary",
			Help: "Current number of items in the secondary tier queue.",
		}),
	}

	reg.MustRegister(
		m.ApplicationsAdmitted,
		m.ApplicationsDispatched,
		m.ApplicationsDropped,
		m.ApplicationsProcessed,
		m.ApplicationsFailed,
		m.QueueDepthPriority,
		m.QueueDepthMain,
		m.QueueDepthSecondary,
	)

	return m
}

// SchedulerHooks returns the metric callbacks expected by scheduler.MetricHooks.
func (m *Metrics) SchedulerHooks() (onDispatched, onDropped func(domain.Tier)) {
	onDispatched = func(tier domain.Tier) {
		m.ApplicationsDispatched.WithLabelValues(string(tier)).Inc()
	}
	onDropped = func(tier domain.Tier) {
		m.ApplicationsDropped.WithLabelValues(string(tier)).Inc()
	}
	return
}

// WorkerHooks returns the metric callbacks expected by worker.MetricHooks.
func (m *Metrics) WorkerHooks() (onProcessed func(domain.Tier), onFailed func()) {
	onProcessed = func(tier domain.Tier) {
		m.ApplicationsProcessed.WithLabelValues(string(tier)).Inc()
	}
	onFailed = func() {
		m.ApplicationsFailed.Inc()
	}
	return
}

// ObserveQueueDepths publishes the current per-tier queue depths.
// Accepts the three values in the order queue.TierQueues.Depths returns them.
func (m *Metrics) ObserveQueueDepths(priority, main, secondary int) {
	m.QueueDepthPriority.Set(float64(priority))
	m.QueueDepthMain.Set(float64(main))
	m.QueueDepthSecondary.Set(float64(secondary))
}

// AdmissionHook returns the callback incremented at the submission boundary.
func (m *Metrics) AdmissionHook() func(domain.Tier) {
	return func(tier domain.Tier) {
		m.ApplicationsAdmitted.WithLabelValues(string(tier)).Inc()
	}
}
