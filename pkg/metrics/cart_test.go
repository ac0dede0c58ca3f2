package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCartMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.IncWriteFired()
	m.IncWriteFired()
	m.IncWriteDropped()
	m.IncReadFailed()
	m.IncStaleReadDiscarded()

	if got := testutil.ToFloat64(m.writesFired); got != 2 {
		t.Fatalf("expected 2 fired writes, got %v", got)
	}
	if got := testutil.ToFloat64(m.writesFailed); got != 1 {
		t.Fatalf("expected 1 dropped write, got %v", got)
	}
	if got := testutil.ToFloat64(m.readsFailed); got != 1 {
		t.Fatalf("expected 1 failed read, got %v", got)
	}
	if got := testutil.ToFloat64(m.staleReads); got != 1 {
		t.Fatalf("expected 1 stale read, got %v", got)
	}
}

func TestCartMetricsNilSafe(t *testing.T) {
	var m *CartMetrics
	m.IncWriteFired()
	m.IncWriteDropped()
	m.IncReadFailed()
	m.IncStaleReadDiscarded()

	empty := NewCartMetrics(nil)
	empty.IncWriteFired()
}
