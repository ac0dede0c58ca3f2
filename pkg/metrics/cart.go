package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records the fate of cart persistence I/O. Because writes are
// fire-and-forget and reads race identity changes, these counters are the
// only visibility into the remote shadow falling behind local state.
type CartMetrics struct {
	writesFired  prometheus.Counter
	writesFailed prometheus.Counter
	readsFailed  prometheus.Counter
	staleReads   prometheus.Counter
}

// NewCartMetrics registers the cart counters on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	writesFired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_writes_fired_total",
		Help: "Cart snapshot writes dispatched to the remote store.",
	})
	writesFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_writes_dropped_total",
		Help: "Cart snapshot writes that failed and were dropped.",
	})
	readsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_reads_failed_total",
		Help: "Cart reads that failed and fell back to an empty cart.",
	})
	staleReads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_stale_reads_discarded_total",
		Help: "Cart reads discarded because the identity changed while in flight.",
	})
	reg.MustRegister(writesFired, writesFailed, readsFailed, staleReads)
	return &CartMetrics{
		writesFired:  writesFired,
		writesFailed: writesFailed,
		readsFailed:  readsFailed,
		staleReads:   staleReads,
	}
}

// IncWriteFired counts a dispatched snapshot write.
func (c *CartMetrics) IncWriteFired() {
	if c == nil || c.writesFired == nil {
		return
	}
	c.writesFired.Inc()
}

// IncWriteDropped counts a failed, silently dropped write.
func (c *CartMetrics) IncWriteDropped() {
	if c == nil || c.writesFailed == nil {
		return
	}
	c.writesFailed.Inc()
}

// IncReadFailed counts a read that fell back to an empty cart.
func (c *CartMetrics) IncReadFailed() {
	if c == nil || c.readsFailed == nil {
		return
	}
	c.readsFailed.Inc()
}

// IncStaleReadDiscarded counts a late read dropped by the stale-response guard.
func (c *CartMetrics) IncStaleReadDiscarded() {
	if c == nil || c.staleReads == nil {
		return
	}
	c.staleReads.Inc()
}
