package mac

import (
	"time"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/queuebuf"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

// Entry is one queued frame awaiting transmission: aloha.c's
// rdc_buf_list/qbuf_metadata pair, collapsed into a single linked-list node
// since Go has no need for Contiki's separate fixed-size MEMB pools for
// each half.
type Entry struct {
	Buf        *queuebuf.Buffer
	Metadata   Metadata
	poolHandle int
	next       *Entry

	// transmissions counts attempts made for this entry specifically. Kept
	// on the entry rather than the neighborQueue so that a completion
	// callback can always be attributed to the exact frame it was sent
	// for, even if an ACK jumped the queue ahead of it while it was mid-
	// flight (see neighborQueue.pushFront).
	transmissions uint8
}

// Next returns the next frame queued behind e for the same neighbor, or
// nil if e is the tail. RDC uses this to walk a burst starting at the
// queue head handed to SendList.
func (e *Entry) Next() *Entry {
	return e.next
}

// NewEntryFromScratchpad builds a standalone Entry by snapshotting sp, with
// no pool accounting and no queue linkage — for callers that talk to an
// RDCDriver directly, bypassing MAC's own queueing and retry bookkeeping.
func NewEntryFromScratchpad(sp *scratchpad.Scratchpad, cb SendCallback) *Entry {
	return &Entry{
		Buf:      queuebuf.SnapshotFromScratchpad(sp),
		Metadata: Metadata{Sent: cb, MaxTransmissions: 1},
	}
}

// NewEntry is a convenience wrapper over NewEntryFromScratchpad for the
// common case of a plain data frame with no pre-existing attributes.
func NewEntry(receiver, sender addr.Addr, seqno uint16, payload []byte, cb SendCallback) *Entry {
	sp := scratchpad.New()
	sp.SetPayload(payload)
	sp.SetAttrs(scratchpad.Attrs{Receiver: receiver, Sender: sender, Seqno: seqno})
	return NewEntryFromScratchpad(sp, cb)
}

// Metadata is the per-frame bookkeeping aloha.c stores in qbuf_metadata.
type Metadata struct {
	Sent             SendCallback
	Ctx              any
	MaxTransmissions uint8
}

// RDCDriver is the downward driver contract the MAC layer consumes
// (spec.md §6), restricted to the methods MAC itself calls. Defined here,
// by the consumer, rather than in package rdc, so internal/rdc can depend
// on internal/mac for the Entry type without an import cycle back the
// other way. The concrete *rdc.RDC additionally implements Send, a
// single-frame wrapper around SendList that callers other than MAC (tests)
// use directly.
type RDCDriver interface {
	Init() error
	SendList(cb SendCallback, ctx any, list *Entry) TxStatus
	Input()
	On() error
	Off(keepRadioOn bool) error
	DutyCycle() time.Duration
}
