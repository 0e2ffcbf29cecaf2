package metrics

import "github.com/prometheus/client_golang/prometheus"

// SyncMetrics exposes counters/histograms for calendar sync fan-outs.
type SyncMetrics struct {
	fanoutTotal    *prometheus.CounterVec
	userSyncTotal  *prometheus.CounterVec
	fanoutDuration *prometheus.HistogramVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		fanoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caseflow",
			Subsystem: "calendar",
			Name:      "fanout_total",
			Help:      "Total sync fan-outs by operation and aggregate result",
		}, []string{"op", "result"}),
		userSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caseflow",
			Subsystem: "calendar",
			Name:      "user_sync_total",
			Help:      "Total per-user sync attempts by operation and result",
		}, []string{"op", "result"}),
		fanoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "caseflow",
			Subsystem: "calendar",
			Name:      "fanout_duration_seconds",
			Help:      "Wall-clock duration of sync fan-outs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fanoutTotal, m.userSyncTotal, m.fanoutDuration)
	return m
}

func (m *SyncMetrics) ObserveFanout(op string, success bool, seconds float64) {
	if m == nil {
		return
	}
	m.fanoutTotal.WithLabelValues(op, resultLabel(success)).Inc()
	m.fanoutDuration.WithLabelValues(op).Observe(seconds)
}

func (m *SyncMetrics) ObserveUserSync(op string, success bool) {
	if m == nil {
		return
	}
	m.userSyncTotal.WithLabelValues(op, resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "ok"
	}
	return "error"
}
