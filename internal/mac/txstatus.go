// Package mac implements the MAC retry controller and neighbor queues
// (spec.md §4.8, §4.9, components C8 and C9): per-neighbor FIFO packet
// queues, head-of-queue ACK priority, a random-uniform retransmission
// backoff, and the upward send-callback contract consumed by application
// code.
//
// Grounded on original_source/core/net/mac/aloha.c: this package is a
// direct, idiomatic-Go reimplementation of aloha.c's neighbor_queue /
// qbuf_metadata / schedule_transmission / tx_done state machine, with
// Contiki's static MEMB pools replaced by internal/pool and its
// packetbuf/queuebuf split replaced by internal/scratchpad and
// internal/queuebuf.
package mac

import "fmt"

// TxStatus is the outcome reported to a send callback once a frame's
// lifetime (spec.md §7) completes, mirroring aloha.c's MAC_TX_* status
// codes.
type TxStatus int

const (
	// TxOK indicates the frame was acknowledged (or, for broadcast,
	// transmitted without requiring an ack).
	TxOK TxStatus = iota
	// TxCollision indicates the radio detected a collision while
	// transmitting. Per the Open Questions resolution in DESIGN.md, the
	// retry controller treats this as a transient, silent condition: it
	// neither advances the retry count nor completes the frame.
	TxCollision
	// TxNoACK indicates a unicast frame's retry budget was exhausted
	// without a matching ACK.
	TxNoACK
	// TxErr indicates a transient, retryable failure to queue or send the
	// frame (e.g. pool exhaustion) — distinct from TxErrFatal.
	TxErr
	// TxErrFatal indicates a condition retrying cannot fix: the framer
	// failed to build the frame, RDC is disabled and not holding the radio
	// on, or the scratchpad being sent has zero length.
	TxErrFatal
	// TxDeferred indicates the frame is still in flight; the RDC layer
	// promises a later, terminal callback and this status is never
	// itself delivered to an upward caller.
	TxDeferred
)

// String returns the human-readable name of the status.
func (s TxStatus) String() string {
	switch s {
	case TxOK:
		return "OK"
	case TxCollision:
		return "Collision"
	case TxNoACK:
		return "NoACK"
	case TxErr:
		return "Err"
	case TxErrFatal:
		return "ErrFatal"
	case TxDeferred:
		return "Deferred"
	default:
		return fmt.Sprintf("TxStatus(%d)", int(s))
	}
}

// SendCallback is invoked exactly once per frame accepted by Send or
// SendList, with the final TxStatus and the number of transmission
// attempts actually made.
type SendCallback func(ctx any, status TxStatus, numTransmissions int)
