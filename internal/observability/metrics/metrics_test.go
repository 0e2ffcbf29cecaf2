package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSyncMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveFanout("create", true, 0.25)
	m.ObserveFanout("create", true, 0.5)
	m.ObserveFanout("delete", false, 0.1)
	m.ObserveUserSync("create", true)
	m.ObserveUserSync("create", false)

	if got := testutil.ToFloat64(m.fanoutTotal.WithLabelValues("create", "ok")); got != 2 {
		t.Errorf("fanout_total{create,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.fanoutTotal.WithLabelValues("delete", "error")); got != 1 {
		t.Errorf("fanout_total{delete,error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.userSyncTotal.WithLabelValues("create", "error")); got != 1 {
		t.Errorf("user_sync_total{create,error} = %v, want 1", got)
	}
}

func TestSyncMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *SyncMetrics
	m.ObserveFanout("create", true, 0.1)
	m.ObserveUserSync("create", true)
}
