package alohametrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	alohametrics "github.com/dantte-lp/alohamac/internal/metrics"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := alohametrics.NewCollector(reg)

	if c.RadioOnGauge == nil {
		t.Error("RadioOnGauge is nil")
	}
	if c.NeighborQueuesGauge == nil {
		t.Error("NeighborQueuesGauge is nil")
	}
	if c.FramesSentTotal == nil {
		t.Error("FramesSentTotal is nil")
	}
	if c.FramesAckedTotal == nil {
		t.Error("FramesAckedTotal is nil")
	}
	if c.FramesNoAckTotal == nil {
		t.Error("FramesNoAckTotal is nil")
	}
	if c.RetriesTotal == nil {
		t.Error("RetriesTotal is nil")
	}
	if c.BroadcastsRateLimitedTotal == nil {
		t.Error("BroadcastsRateLimitedTotal is nil")
	}
	if c.DuplicateFramesDroppedTotal == nil {
		t.Error("DuplicateFramesDroppedTotal is nil")
	}
	if c.PoolExhaustedTotal == nil {
		t.Error("PoolExhaustedTotal is nil")
	}

	// Registration must not panic; gathering must succeed even with no
	// samples recorded yet.
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestRadioOnGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := alohametrics.NewCollector(reg)

	c.RadioOn(true)
	if got := testutil.ToFloat64(c.RadioOnGauge); got != 1 {
		t.Errorf("RadioOnGauge after RadioOn(true) = %v, want 1", got)
	}

	c.RadioOn(false)
	if got := testutil.ToFloat64(c.RadioOnGauge); got != 0 {
		t.Errorf("RadioOnGauge after RadioOn(false) = %v, want 0", got)
	}
}

func TestNeighborQueuesGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := alohametrics.NewCollector(reg)

	c.NeighborQueues(3)
	if got := testutil.ToFloat64(c.NeighborQueuesGauge); got != 3 {
		t.Errorf("NeighborQueuesGauge = %v, want 3", got)
	}

	c.NeighborQueues(0)
	if got := testutil.ToFloat64(c.NeighborQueuesGauge); got != 0 {
		t.Errorf("NeighborQueuesGauge = %v, want 0", got)
	}
}

func TestFrameCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := alohametrics.NewCollector(reg)

	c.FramesSent()
	c.FramesSent()
	c.FramesSent()
	if got := testutil.ToFloat64(c.FramesSentTotal); got != 3 {
		t.Errorf("FramesSentTotal = %v, want 3", got)
	}

	c.FramesAcked()
	c.FramesAcked()
	if got := testutil.ToFloat64(c.FramesAckedTotal); got != 2 {
		t.Errorf("FramesAckedTotal = %v, want 2", got)
	}

	c.FramesNoAck()
	if got := testutil.ToFloat64(c.FramesNoAckTotal); got != 1 {
		t.Errorf("FramesNoAckTotal = %v, want 1", got)
	}
}

func TestRetryAndDropCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := alohametrics.NewCollector(reg)

	c.Retry()
	c.Retry()
	if got := testutil.ToFloat64(c.RetriesTotal); got != 2 {
		t.Errorf("RetriesTotal = %v, want 2", got)
	}

	c.BroadcastRateLimited()
	if got := testutil.ToFloat64(c.BroadcastsRateLimitedTotal); got != 1 {
		t.Errorf("BroadcastsRateLimitedTotal = %v, want 1", got)
	}

	c.DuplicateDropped()
	c.DuplicateDropped()
	c.DuplicateDropped()
	if got := testutil.ToFloat64(c.DuplicateFramesDroppedTotal); got != 3 {
		t.Errorf("DuplicateFramesDroppedTotal = %v, want 3", got)
	}
}

func TestPoolExhaustedIsLabeledPerPool(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := alohametrics.NewCollector(reg)

	c.PoolExhausted("entries")
	c.PoolExhausted("entries")
	c.PoolExhausted("queuebufs")

	if got := testutil.ToFloat64(c.PoolExhaustedTotal.WithLabelValues("entries")); got != 2 {
		t.Errorf("PoolExhaustedTotal[entries] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.PoolExhaustedTotal.WithLabelValues("queuebufs")); got != 1 {
		t.Errorf("PoolExhaustedTotal[queuebufs] = %v, want 1", got)
	}
}
