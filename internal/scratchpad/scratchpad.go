// Package scratchpad implements the shared packet scratchpad (spec.md §3,
// §9): the process-wide singleton buffer holding the frame currently being
// prepared, transmitted, or received, together with its attributes.
//
// Exactly one frame may be resident at a time. The framer, radio driver,
// and MAC/RDC layers all operate on the same *Scratchpad instance passed
// explicitly at construction — there is no package-level global, per the
// "SharedScratchpad object passed explicitly" guidance in spec.md §9.
package scratchpad

import (
	"sync"

	"github.com/dantte-lp/alohamac/internal/addr"
)

// PacketType enumerates the scratchpad's PACKET_TYPE attribute values.
type PacketType uint8

const (
	// PacketTypeData is an ordinary upper-layer data frame.
	PacketTypeData PacketType = iota
	// PacketTypeACK is a software link-layer acknowledgement frame; MAC
	// enqueue gives these head-of-queue priority (spec.md §4.8 step 7).
	PacketTypeACK
)

// Attrs holds the scratchpad attributes named in spec.md §6: MAC_SEQNO,
// MAC_ACK, MAX_MAC_TRANSMISSIONS, PACKET_TYPE, PENDING,
// IS_CREATED_AND_SECURED, plus the receiver/sender addresses.
//
// Modeled as a struct rather than a stringly-typed attribute table:
// Contiki's packetbuf exposes a generic key/value attribute store because
// many unrelated layers share it, but this stack has exactly one scratchpad
// shape, so a struct is the idiomatic Go equivalent.
type Attrs struct {
	Seqno                 uint16
	MACAck                bool
	MaxMACTransmissions   uint8
	PacketType            PacketType
	Pending               bool
	IsCreatedAndSecured   bool
	Receiver              addr.Addr
	Sender                addr.Addr
}

// Scratchpad is the shared singleton packet buffer.
type Scratchpad struct {
	mu      sync.Mutex
	payload []byte
	attrs   Attrs
}

// New creates an empty Scratchpad.
func New() *Scratchpad {
	return &Scratchpad{}
}

// Reset clears the payload and attributes, readying the scratchpad for the
// next frame.
func (s *Scratchpad) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = s.payload[:0]
	s.attrs = Attrs{}
}

// SetPayload replaces the scratchpad's payload with a copy of p.
func (s *Scratchpad) SetPayload(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = append(s.payload[:0], p...)
}

// Payload returns a copy of the current payload.
func (s *Scratchpad) Payload() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.payload))
	copy(out, s.payload)
	return out
}

// Len returns the current payload length.
func (s *Scratchpad) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payload)
}

// Attrs returns a copy of the current attribute set.
func (s *Scratchpad) Attrs() Attrs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrs
}

// SetAttrs replaces the current attribute set.
func (s *Scratchpad) SetAttrs(a Attrs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = a
}

// MutateAttrs applies fn to the current attribute set under lock, storing
// the result back. Used by callers that need read-modify-write semantics
// (e.g. stamping a sequence number) without a data race against the framer
// or radio path touching the same scratchpad.
func (s *Scratchpad) MutateAttrs(fn func(*Attrs)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.attrs)
}
