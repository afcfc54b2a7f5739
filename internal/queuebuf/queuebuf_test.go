package queuebuf_test

import (
	"bytes"
	"testing"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/queuebuf"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

// TestRoundTrip verifies R1: a frame snapshotted from the scratchpad and
// later restored yields identical bytes and attributes.
func TestRoundTrip(t *testing.T) {
	sp := scratchpad.New()
	sp.SetPayload([]byte("hello frame"))
	sp.SetAttrs(scratchpad.Attrs{
		Seqno:      7,
		Receiver:   addr.Addr{0x03, 0x00},
		Sender:     addr.Addr{0x01, 0x00},
		PacketType: scratchpad.PacketTypeData,
	})

	buf := queuebuf.SnapshotFromScratchpad(sp)

	sp.Reset()
	if sp.Len() != 0 {
		t.Fatal("scratchpad must be empty after Reset")
	}

	buf.RestoreToScratchpad(sp)

	if !bytes.Equal(sp.Payload(), []byte("hello frame")) {
		t.Fatalf("payload mismatch after restore: %q", sp.Payload())
	}
	if got := sp.Attrs(); got.Seqno != 7 || got.Receiver != (addr.Addr{0x03, 0x00}) {
		t.Fatalf("attrs mismatch after restore: %+v", got)
	}
}

func TestUpdateAttrsFromScratchpad(t *testing.T) {
	sp := scratchpad.New()
	sp.SetPayload([]byte("x"))
	sp.SetAttrs(scratchpad.Attrs{Seqno: 1})

	buf := queuebuf.SnapshotFromScratchpad(sp)

	sp.MutateAttrs(func(a *scratchpad.Attrs) { a.Seqno = 2 })
	buf.UpdateAttrsFromScratchpad(sp)

	if buf.Seqno() != 2 {
		t.Fatalf("Seqno() = %d, want 2", buf.Seqno())
	}
	if !bytes.Equal(buf.Payload(), []byte("x")) {
		t.Fatal("payload must be untouched by UpdateAttrsFromScratchpad")
	}
}
