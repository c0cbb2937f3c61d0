package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for offline queue draining.
type Metrics struct {
	SyncedItems     prometheus.Counter
	FailedItems     prometheus.Counter
	AbortedAttempts prometheus.Counter
	Attempts        prometheus.Counter
	QueueLength     prometheus.Gauge
}

// NewMetrics registers the reconciler metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SyncedItems: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadsocial_sync_items_synced_total",
			Help: "Total number of queued submissions delivered to the remote store",
		}),
		FailedItems: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadsocial_sync_items_failed_total",
			Help: "Total number of queued submission deliveries that failed and were kept",
		}),
		AbortedAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadsocial_sync_attempts_aborted_total",
			Help: "Total number of sync attempts aborted for lack of a signed-in user",
		}),
		Attempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadsocial_sync_attempts_total",
			Help: "Total number of sync attempts that reached the remote store",
		}),
		QueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cadsocial_offline_queue_length",
			Help: "Number of submissions waiting in the offline queue",
		}),
	}
}

func (m *Metrics) observe(res Result) {
	if m == nil || res.Skipped {
		return
	}
	if res.Aborted {
		m.AbortedAttempts.Inc()
		return
	}
	m.Attempts.Inc()
	m.SyncedItems.Add(float64(res.Succeeded))
	m.FailedItems.Add(float64(res.Failed))
}

func (m *Metrics) setQueueLength(n int) {
	if m == nil {
		return
	}
	m.QueueLength.Set(float64(n))
}
