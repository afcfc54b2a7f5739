package rdc

import "github.com/dantte-lp/alohamac/internal/addr"

// dupWindow is the number of recent (sender, seqno) pairs remembered, in
// one ring shared by all senders. The original's input_packet declares a `duplicate` local that
// is always 0 — dead code, never actually populated by aloha.c or
// contikimac-for-aloha-rdc.c. Per the Open Questions resolution in
// DESIGN.md, this rewrite makes it real: a small shared ring catches
// the common case (a strobe retransmitted after its first copy was
// already accepted, or a retried unicast whose earlier ACK was lost in
// the other direction) without the unbounded memory of tracking every
// peer forever.
const dupWindow = 8

type dupKey struct {
	sender addr.Addr
	seqno  uint16
}

// dupFilter is a small bounded LRU-ish set of (sender, seqno) pairs,
// implemented as a fixed-size ring so memory is bounded regardless of how
// many distinct senders are seen (spec.md keeps "no unbounded growth" an
// implicit invariant of every component).
type dupFilter struct {
	seen [dupWindow]dupKey
	next int
	full bool
}

// seenBefore reports whether (sender, seqno) was already recorded, and
// records it if not.
func (d *dupFilter) seenBefore(sender addr.Addr, seqno uint16) bool {
	key := dupKey{sender, seqno}
	limit := d.next
	if d.full {
		limit = dupWindow
	}
	for i := 0; i < limit; i++ {
		if d.seen[i] == key {
			return true
		}
	}
	d.seen[d.next] = key
	d.next++
	if d.next == dupWindow {
		d.next = 0
		d.full = true
	}
	return false
}
