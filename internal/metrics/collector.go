// Package alohametrics exposes the MAC and RDC layers' counters as
// Prometheus metrics.
package alohametrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "aloha"
)

// Label names.
const (
	labelPool = "pool"
)

// -------------------------------------------------------------------------
// Collector — Prometheus MAC/RDC Metrics
// -------------------------------------------------------------------------

// Collector holds all MAC and RDC Prometheus metrics. It satisfies both
// internal/mac.Metrics and internal/rdc.Metrics, so one Collector can be
// wired into both layers of a node.
type Collector struct {
	// RadioOnGauge tracks whether the radio is currently receiving (1) or
	// off (0) — a live duty-cycle proxy, not a counter.
	RadioOnGauge prometheus.Gauge

	// NeighborQueuesGauge tracks the current size of the MAC neighbor
	// queue table.
	NeighborQueuesGauge prometheus.Gauge

	FramesSentTotal      prometheus.Counter
	FramesAckedTotal      prometheus.Counter
	FramesNoAckTotal      prometheus.Counter
	RetriesTotal          prometheus.Counter
	BroadcastsRateLimitedTotal prometheus.Counter
	DuplicateFramesDroppedTotal prometheus.Counter

	// PoolExhaustedTotal is labeled by pool name since more than one
	// fixed-capacity pool may exist in a node (today: the MAC entry pool).
	PoolExhaustedTotal *prometheus.CounterVec
}

// NewCollector creates a Collector with all metrics registered against the
// provided prometheus.Registerer. If reg is nil, prometheus.DefaultRegisterer
// is used.
//
// All metrics are created with the "aloha_" prefix to avoid collisions with
// other exporters sharing the same process.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.RadioOnGauge,
		c.NeighborQueuesGauge,
		c.FramesSentTotal,
		c.FramesAckedTotal,
		c.FramesNoAckTotal,
		c.RetriesTotal,
		c.BroadcastsRateLimitedTotal,
		c.DuplicateFramesDroppedTotal,
		c.PoolExhaustedTotal,
	)

	return c
}

// newMetrics creates all Prometheus metrics without registering them.
func newMetrics() *Collector {
	return &Collector{
		RadioOnGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "radio_on",
			Help:      "Whether the radio is currently powered on and receiving (1) or off (0).",
		}),

		NeighborQueuesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "neighbor_queues",
			Help:      "Number of neighbor queues currently tracked by the MAC layer.",
		}),

		FramesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Total data frames successfully strobed onto the channel.",
		}),

		FramesAckedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_acked_total",
			Help:      "Total unicast frames that received a software ACK.",
		}),

		FramesNoAckTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_noack_total",
			Help:      "Total unicast frames strobed for the full strobe window without an ACK.",
		}),

		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total non-terminal send attempts rescheduled by the MAC retry controller.",
		}),

		BroadcastsRateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_rate_limited_total",
			Help:      "Total broadcast frames dropped by the per-second broadcast rate limiter.",
		}),

		DuplicateFramesDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_frames_dropped_total",
			Help:      "Total inbound frames suppressed as duplicates of an already-delivered (sender, seqno) pair.",
		}),

		PoolExhaustedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_exhausted_total",
			Help:      "Total allocation failures against a fixed-capacity pool.",
		}, []string{labelPool}),
	}
}

// -------------------------------------------------------------------------
// internal/rdc.Metrics
// -------------------------------------------------------------------------

// FramesSent implements internal/rdc.Metrics.
func (c *Collector) FramesSent() {
	c.FramesSentTotal.Inc()
}

// FramesAcked implements internal/rdc.Metrics.
func (c *Collector) FramesAcked() {
	c.FramesAckedTotal.Inc()
}

// FramesNoAck implements internal/rdc.Metrics.
func (c *Collector) FramesNoAck() {
	c.FramesNoAckTotal.Inc()
}

// BroadcastRateLimited implements internal/rdc.Metrics.
func (c *Collector) BroadcastRateLimited() {
	c.BroadcastsRateLimitedTotal.Inc()
}

// DuplicateDropped implements internal/rdc.Metrics.
func (c *Collector) DuplicateDropped() {
	c.DuplicateFramesDroppedTotal.Inc()
}

// RadioOn implements internal/rdc.Metrics.
func (c *Collector) RadioOn(on bool) {
	if on {
		c.RadioOnGauge.Set(1)
	} else {
		c.RadioOnGauge.Set(0)
	}
}

// -------------------------------------------------------------------------
// internal/mac.Metrics
// -------------------------------------------------------------------------

// Retry implements internal/mac.Metrics.
func (c *Collector) Retry() {
	c.RetriesTotal.Inc()
}

// PoolExhausted implements internal/mac.Metrics.
func (c *Collector) PoolExhausted(pool string) {
	c.PoolExhaustedTotal.WithLabelValues(pool).Inc()
}

// NeighborQueues implements internal/mac.Metrics.
func (c *Collector) NeighborQueues(n int) {
	c.NeighborQueuesGauge.Set(float64(n))
}
