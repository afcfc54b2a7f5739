package rdc

import (
	"time"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/framer"
	"github.com/dantte-lp/alohamac/internal/mac"
	"github.com/dantte-lp/alohamac/internal/radio"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

// Send is the single-frame counterpart to SendList, for callers that want
// to transmit one frame without wiring up MAC's neighbor-queue machinery at
// all (tests). It is a thin
// wrapper: entry's own Pending attribute and chained Next(), if any, still
// govern whether SendList opportunistically continues past it.
func (d *RDC) Send(cb mac.SendCallback, ctx any, entry *mac.Entry) mac.TxStatus {
	return d.SendList(cb, ctx, entry)
}

// SendList implements mac.RDCDriver (qsend_list): transmits the frame at
// the head of list, and — if it succeeds and its Pending attribute says
// more frames follow — opportunistically continues down the list as a
// burst without re-waking the receiver (aloha.c's "we're in a burst, no
// need to wake the receiver up again").
func (d *RDC) SendList(cb mac.SendCallback, ctx any, list *mac.Entry) mac.TxStatus {
	if list == nil {
		return mac.TxErr
	}

	if d.sendingOrReceivingBurstForCallback() {
		cb(ctx, mac.TxCollision, 1)
		return mac.TxCollision
	}

	curr := list
	for curr != nil {
		next := curr.Next()
		pending := curr.Buf.Attrs().Pending

		status := d.sendEntry(curr)
		cb(ctx, status, 1)

		if status == mac.TxOK && pending && next != nil {
			curr = next
			continue
		}
		break
	}
	return mac.TxDeferred
}

func (d *RDC) sendingOrReceivingBurstForCallback() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.weAreReceivingBurst
}

// sendEntry implements send_packet: strobe a single frame for up to
// StrobeTime, breaking out early on a unicast the moment an ACK for it is
// read back; a broadcast always runs the full strobe since there is no ACK
// to stop on.
func (d *RDC) sendEntry(e *mac.Entry) mac.TxStatus {
	d.mu.Lock()
	enabled := d.isOn || d.keepRadioOn
	d.mu.Unlock()
	if !enabled {
		d.log.Warn("rdc: radio is turned off")
		return mac.TxErrFatal
	}
	if e.Buf.Len() == 0 {
		d.log.Warn("rdc: refusing to send a zero-length frame")
		return mac.TxErrFatal
	}

	e.Buf.RestoreToScratchpad(d.sp)
	a := d.sp.Attrs()
	isBroadcast := a.Receiver == addr.Null

	if isBroadcast && d.broadcastRateDrop() {
		if d.metrics != nil {
			d.metrics.BroadcastRateLimited()
		}
		return mac.TxCollision
	}

	if !a.IsCreatedAndSecured {
		d.sp.MutateAttrs(func(attrs *scratchpad.Attrs) { attrs.MACAck = true })
		if _, err := d.framer.Create(d.sp); err != nil {
			d.log.Warn("rdc: framer failed", "error", err)
			return mac.TxErrFatal
		}
	}

	frame := d.sp.Payload()
	seqno := d.sp.Attrs().Seqno

	if err := d.radio.Prepare(frame); err != nil {
		return mac.TxErr
	}

	d.mu.Lock()
	d.weAreSending = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.weAreSending = false
		d.mu.Unlock()
	}()

	if d.radio.ReceivingPacket() || d.radio.PendingPacket() {
		d.log.Debug("rdc: collision, frame already in flight on the channel")
		return mac.TxNoACK
	}

	d.turnRadioOn()

	// Strobe: repeat the frame for up to StrobeTime so a receiver sleeping
	// through any part of its own duty cycle still catches a copy before we
	// give up (contikimac-for-aloha-rdc.c's send_packet strobe loop).
	// Broadcast has no ACK to stop early on; unicast bails the moment one
	// arrives.
	gotAck := false
	deadline := time.Now().Add(d.cfg.StrobeTime)
	for time.Now().Before(deadline) {
		res := d.radio.Transmit(len(frame))
		if res != radio.TxResultOK {
			d.turnRadioOffIfIdle()
			if res == radio.TxResultCollision {
				return mac.TxCollision
			}
			return mac.TxErr
		}
		d.sleepBusy(d.cfg.InterPacketInterval)

		if !isBroadcast && (d.radio.ReceivingPacket() || d.radio.PendingPacket()) {
			d.sleepBusy(d.cfg.AfterAckDetectedWaitTime)
			ackbuf := make([]byte, framer.AckLen)
			n, err := d.radio.Read(ackbuf)
			if err == nil && n == framer.AckLen && ackbuf[framer.AckLen-1] == byte(seqno) {
				gotAck = true
				break
			}
		}
	}

	d.turnRadioOffIfIdle()

	if !isBroadcast && !gotAck {
		if d.metrics != nil {
			d.metrics.FramesNoAck()
		}
		return mac.TxNoACK
	}
	if d.metrics != nil {
		d.metrics.FramesSent()
		if !isBroadcast {
			d.metrics.FramesAcked()
		}
	}
	return mac.TxOK
}

// sleepBusy blocks the calling goroutine for d — used only for the short,
// sub-millisecond strobe-timing waits inline in a transmit attempt, where
// spec.md's "foreground task context" is allowed to block (unlike the
// sampler, which must never block its single goroutine).
func (d *RDC) sleepBusy(dur time.Duration) {
	if dur <= 0 {
		return
	}
	<-time.After(dur)
}

func (d *RDC) broadcastRateDrop() bool {
	if d.cfg.BroadcastRateLimitPerSecond <= 0 {
		return false
	}
	d.broadcastMu.Lock()
	defer d.broadcastMu.Unlock()

	now := time.Now()
	if d.broadcastWin.IsZero() || now.After(d.broadcastWin) {
		d.broadcastWin = now.Add(time.Second)
		d.broadcastHits = 0
	}
	d.broadcastHits++
	return d.broadcastHits > d.cfg.BroadcastRateLimitPerSecond
}
