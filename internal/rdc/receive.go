package rdc

import (
	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

// maxFrameLen bounds the read buffer Input uses to drain a pending frame
// from the radio driver. 127 matches the original's IEEE 802.15.4 PHY
// frame ceiling, which the strobe/ACK framing in this package never
// exceeds.
const maxFrameLen = 127

// Input implements mac.RDCDriver (input_packet): drains the radio's
// pending frame, discards anything that isn't a data frame addressed to
// us or to the broadcast address, suppresses duplicates, answers with a
// software ACK when requested, and tracks burst continuation before
// dispatching to the layer above via Upward.Deliver.
func (d *RDC) Input() {
	// Step 1: request the radio off unconditionally, before anything about
	// this frame is even known. turnRadioOffIfIdle is itself a no-op while
	// we are already mid-burst (or mid-send), so this never cuts a burst
	// short; it only matters for the ordinary case of a single frame
	// arriving outside of any burst.
	d.turnRadioOffIfIdle()

	buf := make([]byte, maxFrameLen)
	n, err := d.radio.Read(buf)
	if err != nil || n == 0 {
		return
	}

	d.sp.SetPayload(buf[:n])
	if _, err := d.framer.Parse(d.sp); err != nil {
		d.log.Debug("rdc: dropping unparsable frame", "error", err)
		return
	}

	a := d.sp.Attrs()
	if a.PacketType == scratchpad.PacketTypeACK {
		// ACKs are consumed inline by the strobing sender while it waits
		// for one (sendEntry); one arriving here has no sender waiting
		// on it and is simply stale.
		return
	}

	if !a.Receiver.IsNull() && a.Receiver != d.local {
		return
	}

	if a.MACAck && !a.Receiver.IsNull() {
		// Ack every copy, duplicate or not: the sender may be retrying
		// because our earlier ACK for this exact seqno was lost, and
		// withholding a second one would just prolong its strobe for
		// nothing.
		d.sendAck(a.Sender, a.Seqno)
	}

	// Step 5 (burst continuation bookkeeping) runs before step 6 (the
	// duplicate check) so that a retried frame — arriving here as a
	// duplicate precisely because our earlier ACK for it was lost mid-burst
	// — still refreshes weAreReceivingBurst and the burst timer instead of
	// letting them drift from the sender's actual burst state.
	if a.Pending {
		d.mu.Lock()
		d.weAreReceivingBurst = true
		d.mu.Unlock()
		d.burstTimer.Set(d.cfg.InterPacketDeadline, d.endBurst)
	} else {
		d.endBurst()
	}

	if d.dup.seenBefore(a.Sender, a.Seqno) {
		if d.metrics != nil {
			d.metrics.DuplicateDropped()
		}
		return
	}

	if d.upward != nil {
		d.upward.Deliver(d.sp.Payload(), a)
	}
}

// endBurst closes out a burst reception window (or a no-op if none was
// open), dropping the radio gate back to idle rules.
func (d *RDC) endBurst() {
	d.burstTimer.Stop()
	d.mu.Lock()
	d.weAreReceivingBurst = false
	d.mu.Unlock()
	d.turnRadioOffIfIdle()
}

// sendAck transmits a standalone software ACK, built on a scratchpad of its
// own so it never disturbs the just-parsed inbound frame still held in
// d.sp (which the caller dispatches to the upward driver right after).
func (d *RDC) sendAck(to addr.Addr, seqno uint16) {
	ack := scratchpad.New()
	ack.SetAttrs(scratchpad.Attrs{
		PacketType: scratchpad.PacketTypeACK,
		Seqno:      seqno,
		Receiver:   to,
	})
	if _, err := d.framer.Create(ack); err != nil {
		d.log.Warn("rdc: failed to build ack frame", "error", err)
		return
	}
	frame := ack.Payload()
	if err := d.radio.Prepare(frame); err != nil {
		return
	}
	d.radio.Transmit(len(frame))
}
