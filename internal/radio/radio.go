// Package radio defines the radio driver contract consumed by the RDC
// layer (spec.md §6) and ships a reference, in-process implementation
// (MediumRadio over a shared Medium) so the stack can be exercised without
// real hardware. The radio driver itself is an external collaborator and
// out of the core's scope except at this interface.
package radio

import "errors"

// TxResult is the outcome of a single Transmit call.
type TxResult int

const (
	// TxResultOK indicates the radio transmitted the frame without error.
	TxResultOK TxResult = iota
	// TxResultCollision indicates the radio detected a collision while
	// transmitting.
	TxResultCollision
	// TxResultError indicates a driver-level transmit failure.
	TxResultError
)

// String returns the human-readable name of the result.
func (r TxResult) String() string {
	switch r {
	case TxResultOK:
		return "OK"
	case TxResultCollision:
		return "Collision"
	case TxResultError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrNotPrepared names a Transmit without a prior Prepare. MediumRadio's
// Transmit reports that case as TxResultError and does not return this error.
var ErrNotPrepared = errors.New("radio: transmit without prepare")

// Radio is the consumed radio driver contract (spec.md §6).
type Radio interface {
	// Prepare loads frame into the radio's transmit buffer without keying
	// the transmitter.
	Prepare(frame []byte) error

	// Transmit keys the transmitter and sends length bytes of the
	// previously prepared frame.
	Transmit(length int) TxResult

	// On powers the receiver on.
	On() error

	// Off powers the receiver off.
	Off() error

	// Read copies up to len(buf) bytes of the most recently received frame
	// into buf, returning the number of bytes copied.
	Read(buf []byte) (int, error)

	// ChannelClear reports whether the channel is currently idle (a single
	// CCA probe).
	ChannelClear() bool

	// ReceivingPacket reports whether the radio is in the middle of
	// receiving a packet.
	ReceivingPacket() bool

	// PendingPacket reports whether a fully received packet is waiting to
	// be read.
	PendingPacket() bool
}
