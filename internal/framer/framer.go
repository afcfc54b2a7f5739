// Package framer implements the framer contract (spec.md §6) and a
// reference wire codec, LengthFramer, so frames can cross the Radio
// interface as plain byte slices.
//
// Grounded on the teacher's packet codec (internal/bfd/packet.go): a
// fixed-layout header decoded with encoding/binary, explicit length
// validation, and sentinel errors for malformed input, rather than a
// self-describing or TLV format.
package framer

import (
	"encoding/binary"
	"errors"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

// AckLen is the wire length of an acknowledgement frame (spec.md §6,
// "ACK_LEN = 3"): two reserved bytes followed by the low byte of the
// sequence number being acknowledged.
const AckLen = 3

// HeaderLen is the wire length of a data frame header, before payload:
// receiver address, sender address, sequence number, flags.
const HeaderLen = 2*addr.Size + 2 + 1

const (
	flagPending = 1 << iota
	flagMACAck
	flagSecured
)

// ErrShortFrame is returned by Parse when the input is shorter than a
// minimal header and is not recognizable as an ACK.
var ErrShortFrame = errors.New("framer: frame shorter than header")

// Framer is the consumed framer contract (spec.md §6).
type Framer interface {
	// Create serializes the scratchpad's current attributes and payload
	// into a wire frame, replacing the scratchpad payload in place, and
	// returns the resulting length.
	Create(sp *scratchpad.Scratchpad) (int, error)

	// Parse deserializes a wire frame already resident in the
	// scratchpad's payload, replacing it with the attributes and body it
	// decodes, and returns the number of bytes consumed.
	Parse(sp *scratchpad.Scratchpad) (int, error)
}

// LengthFramer is the reference Framer: a minimal fixed header (receiver,
// sender, sequence number, flags) ahead of the payload for data frames,
// and the truncated AckLen encoding for ACK frames (spec.md §4.2 step 1 in
// the original's unicast send path: "mark success iff bytes read = ACK_LEN
// and the trailing byte equals the transmitted sequence number").
type LengthFramer struct{}

// Create implements Framer.
func (LengthFramer) Create(sp *scratchpad.Scratchpad) (int, error) {
	a := sp.Attrs()

	if a.PacketType == scratchpad.PacketTypeACK {
		frame := make([]byte, AckLen)
		frame[AckLen-1] = byte(a.Seqno)
		sp.SetPayload(frame)
		return AckLen, nil
	}

	body := sp.Payload()
	frame := make([]byte, HeaderLen+len(body))
	copy(frame[0:addr.Size], a.Receiver[:])
	copy(frame[addr.Size:2*addr.Size], a.Sender[:])
	binary.BigEndian.PutUint16(frame[2*addr.Size:2*addr.Size+2], a.Seqno)
	frame[2*addr.Size+2] = flagsFromAttrs(a)
	copy(frame[HeaderLen:], body)

	sp.SetPayload(frame)
	return len(frame), nil
}

// Parse implements Framer.
func (LengthFramer) Parse(sp *scratchpad.Scratchpad) (int, error) {
	frame := sp.Payload()

	if len(frame) == AckLen {
		sp.SetAttrs(scratchpad.Attrs{
			PacketType: scratchpad.PacketTypeACK,
			Seqno:      uint16(frame[AckLen-1]),
		})
		sp.SetPayload(nil)
		return AckLen, nil
	}

	if len(frame) < HeaderLen {
		return 0, ErrShortFrame
	}

	var receiver, sender addr.Addr
	copy(receiver[:], frame[0:addr.Size])
	copy(sender[:], frame[addr.Size:2*addr.Size])
	seqno := binary.BigEndian.Uint16(frame[2*addr.Size : 2*addr.Size+2])
	flags := frame[2*addr.Size+2]

	sp.SetAttrs(scratchpad.Attrs{
		Receiver:            receiver,
		Sender:              sender,
		Seqno:               seqno,
		PacketType:          scratchpad.PacketTypeData,
		Pending:             flags&flagPending != 0,
		MACAck:              flags&flagMACAck != 0,
		IsCreatedAndSecured: flags&flagSecured != 0,
	})
	sp.SetPayload(frame[HeaderLen:])
	return len(frame), nil
}

func flagsFromAttrs(a scratchpad.Attrs) byte {
	var f byte
	if a.Pending {
		f |= flagPending
	}
	if a.MACAck {
		f |= flagMACAck
	}
	if a.IsCreatedAndSecured {
		f |= flagSecured
	}
	return f
}
