package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordRefresh("EUR/USD", "ok")
	r.RecordRefresh("EUR/USD", "ok")
	r.RecordRefresh("EUR/USD", "failed")
	r.RecordSignal("EUR/USD", -1.5)
	r.RecordDegraded("EUR/USD", true)
	r.RecordLastPrice("EUR/USD", 1.0852)

	if got := testutil.ToFloat64(r.refreshes.WithLabelValues("EUR/USD", "ok")); got != 2 {
		t.Fatalf("refresh ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.signalScore.WithLabelValues("EUR/USD")); got != -1.5 {
		t.Fatalf("signal score = %v", got)
	}
	if got := testutil.ToFloat64(r.degraded.WithLabelValues("EUR/USD")); got != 1 {
		t.Fatalf("degraded = %v", got)
	}
	r.RecordDegraded("EUR/USD", false)
	if got := testutil.ToFloat64(r.degraded.WithLabelValues("EUR/USD")); got != 0 {
		t.Fatalf("degraded = %v after reset", got)
	}
}
