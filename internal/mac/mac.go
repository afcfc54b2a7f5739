package mac

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/pool"
	"github.com/dantte-lp/alohamac/internal/queuebuf"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

// backoffMin and backoffMax bound the uniform retransmission delay
// (aloha.c: `(random_rand()) % 20 + 1`, taken as milliseconds).
const (
	backoffMin = 1 * time.Millisecond
	backoffMax = 20 * time.Millisecond
)

// Metrics is the small set of counters MAC reports, satisfied by
// *internal/metrics.Collector. Left nil-safe so MAC is usable without a
// metrics backend in tests.
type Metrics interface {
	Retry()
	PoolExhausted(pool string)
	NeighborQueues(n int)
}

// ReceiveHandler is the application-layer sink for inbound data frames
// that survive RDC's duplicate and addressing filters. Wired with
// SetReceiveHandler; left unset, delivered frames are simply dropped
// (there being nothing above MAC to hand them to).
type ReceiveHandler func(payload []byte, attrs scratchpad.Attrs)

// MAC is the retry controller and neighbor-queue manager (spec.md §4.8,
// §4.9, components C8/C9): the upward driver contract an application calls
// into, backed by a downward RDCDriver.
type MAC struct {
	log     *slog.Logger
	cfg     Config
	rdc     RDCDriver
	metrics Metrics

	seqno   seqnoAllocator
	receive ReceiveHandler

	mu        sync.Mutex
	neighbors map[addr.Addr]*neighborQueue
	entries   *pool.Pool[*Entry]
}

// New creates a MAC retry controller bound to rdc.
func New(rdc RDCDriver, cfg Config, log *slog.Logger) *MAC {
	if log == nil {
		log = slog.Default()
	}
	return &MAC{
		log:       log,
		cfg:       cfg,
		rdc:       rdc,
		neighbors: make(map[addr.Addr]*neighborQueue),
		entries:   pool.New[*Entry](cfg.MaxPacketPerNeighbor),
	}
}

// SetMetrics wires an optional metrics recorder.
func (m *MAC) SetMetrics(metrics Metrics) {
	m.metrics = metrics
}

// SetReceiveHandler wires the application callback for inbound data
// frames. Must be called before Init if the caller cares about frames
// that arrive during startup.
func (m *MAC) SetReceiveHandler(h ReceiveHandler) {
	m.receive = h
}

// reportNeighborQueues publishes the current neighbor-table size. Called
// with m.mu held, right after a neighbor entry is added or removed.
func (m *MAC) reportNeighborQueues() {
	if m.metrics != nil {
		m.metrics.NeighborQueues(len(m.neighbors))
	}
}

// Init implements the upward driver contract.
func (m *MAC) Init() error {
	return m.rdc.Init()
}

// On implements the upward driver contract.
func (m *MAC) On() error {
	return m.rdc.On()
}

// Off implements the upward driver contract.
func (m *MAC) Off(keepRadioOn bool) error {
	return m.rdc.Off(keepRadioOn)
}

// ChannelCheckInterval implements the upward driver contract.
func (m *MAC) ChannelCheckInterval() time.Duration {
	return m.rdc.DutyCycle()
}

// QueueStat reports one neighbor queue's current depth and the head
// entry's retry count, for status/introspection tooling (alohad's status
// endpoint, alohactl queues).
type QueueStat struct {
	Addr          addr.Addr
	Length        int
	Transmissions uint8
}

// QueueStats snapshots every currently-tracked neighbor queue. The returned
// slice is a point-in-time copy; it does not alias MAC's internal state.
func (m *MAC) QueueStats() []QueueStat {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := make([]QueueStat, 0, len(m.neighbors))
	for a, n := range m.neighbors {
		var tx uint8
		if n.head != nil {
			tx = n.head.transmissions
		}
		stats = append(stats, QueueStat{Addr: a, Length: n.length, Transmissions: tx})
	}
	return stats
}

// Input implements the upward driver contract: it forces the RDC layer to
// drain and process whatever frame is currently sitting in the radio.
// RDC drains arrivals itself — its sampler after a snoop that finds a
// pending frame, and its listen poll whenever the radio is on outside a
// strobe — so production code never needs to; it exists for callers
// (tests, a polling-only radio driver) that drive reception by hand.
func (m *MAC) Input() {
	m.rdc.Input()
}

// Deliver implements rdc.Upward: it receives a data frame that cleared
// RDC's addressing and duplicate filters (ACKs never reach here, stripped
// one layer down) and hands it to the registered ReceiveHandler, if any.
func (m *MAC) Deliver(payload []byte, attrs scratchpad.Attrs) {
	if m.receive != nil {
		m.receive(payload, attrs)
	}
}

// Send queues sp's current payload and attributes for transmission to its
// Receiver attribute, allocating a sequence number and a neighbor queue
// slot (spec.md §4.8, aloha.c's send_packet). It returns TxDeferred on
// success — the terminal TxStatus arrives later via cb — or TxErr if the
// frame could not be queued at all.
func (m *MAC) Send(sp *scratchpad.Scratchpad, cb SendCallback, ctx any) TxStatus {
	sp.MutateAttrs(func(a *scratchpad.Attrs) {
		a.Seqno = m.seqno.next16()
	})
	a := sp.Attrs()

	buf := queuebuf.SnapshotFromScratchpad(sp)
	maxTx := a.MaxMACTransmissions
	if maxTx == 0 {
		maxTx = m.cfg.MaxFrameRetries + 1
	}

	m.mu.Lock()

	n, ok := m.neighbors[a.Receiver]
	if !ok {
		if len(m.neighbors) >= m.cfg.MaxNeighborQueues {
			m.mu.Unlock()
			m.log.Warn("mac: neighbor queue table full, dropping frame", "receiver", a.Receiver)
			cb(ctx, TxErr, 0)
			return TxErr
		}
		n = newNeighborQueue(a.Receiver)
		m.neighbors[a.Receiver] = n
		m.reportNeighborQueues()
	}

	if n.length >= m.cfg.MaxPacketPerNeighbor {
		if n.empty() {
			delete(m.neighbors, a.Receiver)
			m.reportNeighborQueues()
		}
		m.mu.Unlock()
		m.log.Warn("mac: neighbor queue full, dropping frame", "receiver", a.Receiver)
		cb(ctx, TxErr, 0)
		return TxErr
	}

	handle, err := m.entries.Alloc(nil)
	if err != nil {
		if n.empty() {
			delete(m.neighbors, a.Receiver)
			m.reportNeighborQueues()
		}
		m.mu.Unlock()
		m.log.Warn("mac: packet pool exhausted, dropping frame")
		if m.metrics != nil {
			m.metrics.PoolExhausted("entries")
		}
		cb(ctx, TxErr, 0)
		return TxErr
	}

	entry := &Entry{
		Buf:        buf,
		Metadata:   Metadata{Sent: cb, Ctx: ctx, MaxTransmissions: maxTx},
		poolHandle: handle,
	}

	wasEmpty := n.empty()
	if a.PacketType == scratchpad.PacketTypeACK && !n.empty() {
		n.pushFront(entry)
	} else {
		n.pushBack(entry)
	}
	m.mu.Unlock()

	if wasEmpty {
		m.transmitHead(n)
	}

	return TxDeferred
}

// scheduleTransmission arms n's retry timer for a uniform random delay in
// [backoffMin, backoffMax] (aloha.c's schedule_transmission).
func (m *MAC) scheduleTransmission(n *neighborQueue) {
	delay := backoffMin + time.Duration(rand.Int64N(int64(backoffMax-backoffMin+time.Millisecond)))
	n.timer.Set(delay, func() { m.transmitHead(n) })
}

// transmitHead sends the frame at the head of n's queue (aloha.c's
// transmit_packet_list), handing the whole remaining list to the RDC layer
// so it may opportunistically burst the rest in one duty-cycle wake. head
// is captured and carried through to onCompletion explicitly, since by the
// time the completion callback fires n.head may no longer be this same
// entry (a concurrent Send of an ACK-type frame can pushFront ahead of it).
func (m *MAC) transmitHead(n *neighborQueue) {
	m.mu.Lock()
	head := n.head
	m.mu.Unlock()
	if head == nil {
		return
	}
	m.rdc.SendList(func(ctx any, status TxStatus, numTransmissions int) {
		m.onCompletion(n, head, status, numTransmissions)
	}, n, head)
}

// onCompletion processes the RDC layer's verdict for entry (aloha.c's
// packet_sent/tx_ok/noack/tx_done), identified explicitly rather than by
// re-reading n.head — entry may have been bumped off the head position by
// an ACK's pushFront while it was mid-flight, and attributing the verdict
// to whatever currently sits at n.head would credit/complete the wrong
// frame (spec's ACK-priority scenario). The user's send callback and the
// next SendList, if any, are both invoked with m.mu released, so a
// callback that re-enters Send never deadlocks against this goroutine.
func (m *MAC) onCompletion(n *neighborQueue, entry *Entry, status TxStatus, numTransmissions int) {
	if status == TxCollision || status == TxDeferred {
		// Transient: neither the retry count nor the queue moves, no retry
		// is scheduled and the send callback is not invoked (Open Questions
		// resolution). RDC does not re-send after reporting a collision.
		return
	}

	m.mu.Lock()
	entry.transmissions += uint8(numTransmissions)

	terminal := status == TxErr || status == TxErrFatal || status == TxOK ||
		entry.transmissions >= entry.Metadata.MaxTransmissions
	if !terminal {
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.Retry()
		}
		m.scheduleTransmission(n)
		return
	}

	final := status
	if status != TxErr && status != TxErrFatal && status != TxOK {
		final = TxNoACK
	}

	ntx := entry.transmissions
	if !n.remove(entry) {
		// Already removed by another completion for this same entry;
		// should not happen (a neighbor has at most one in-flight
		// SendList at a time), but avoid double-freeing the pool slot or
		// double-invoking the send callback if it somehow does.
		m.mu.Unlock()
		m.log.Warn("mac: completion for an entry no longer in its queue", "receiver", n.addr)
		return
	}
	m.entries.Free(entry.poolHandle)

	hasNext := !n.empty()
	if !hasNext {
		n.timer.Stop()
		delete(m.neighbors, n.addr)
		m.reportNeighborQueues()
	}
	m.mu.Unlock()

	if hasNext {
		m.scheduleTransmission(n)
	}
	entry.Metadata.Sent(entry.Metadata.Ctx, final, int(ntx))
}
