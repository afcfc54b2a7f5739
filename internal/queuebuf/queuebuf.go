// Package queuebuf implements the queue-buffer adapter (spec.md §4.2,
// component C2): an owned, sized byte buffer plus a snapshot of the
// scratchpad's attribute set, independent of the scratchpad singleton.
package queuebuf

import "github.com/dantte-lp/alohamac/internal/scratchpad"

// Buffer is an owned, independent copy of a frame: payload bytes plus the
// scratchpad attributes that described it at snapshot time.
type Buffer struct {
	payload []byte
	attrs   scratchpad.Attrs
}

// SnapshotFromScratchpad copies the active scratchpad frame (payload and
// attributes) into a freshly allocated Buffer.
func SnapshotFromScratchpad(sp *scratchpad.Scratchpad) *Buffer {
	return &Buffer{
		payload: sp.Payload(),
		attrs:   sp.Attrs(),
	}
}

// RestoreToScratchpad copies this buffer's bytes and attributes back into
// sp, so a subsequent transmit can reuse framer-populated bytes (spec.md
// §4.2, used by the retry path to replay a frame without re-framing it).
func (b *Buffer) RestoreToScratchpad(sp *scratchpad.Scratchpad) {
	sp.SetPayload(b.payload)
	sp.SetAttrs(b.attrs)
}

// UpdateAttrsFromScratchpad refreshes only this buffer's attribute set from
// sp, leaving the payload untouched. Used by retry paths so retransmission
// energy/seqno bookkeeping is attributed correctly without re-snapshotting
// the (unchanged) payload bytes.
func (b *Buffer) UpdateAttrsFromScratchpad(sp *scratchpad.Scratchpad) {
	b.attrs = sp.Attrs()
}

// Attrs returns a copy of the buffer's attribute set.
func (b *Buffer) Attrs() scratchpad.Attrs {
	return b.attrs
}

// Payload returns a copy of the buffer's payload bytes.
func (b *Buffer) Payload() []byte {
	out := make([]byte, len(b.payload))
	copy(out, b.payload)
	return out
}

// Len returns the buffer's payload length.
func (b *Buffer) Len() int {
	return len(b.payload)
}

// Seqno returns the MAC sequence number stamped on this buffer's attributes.
func (b *Buffer) Seqno() uint16 {
	return b.attrs.Seqno
}
