package mac

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// seqnoAllocator hands out MAC sequence numbers, grounded on the same
// nonzero-random-start discipline as internal/bfd/discriminator.go, but
// simpler: aloha.c's send_packet seeds seqno from random_rand() once, skips
// zero (a framer-802154.c peculiarity the wire format here does not
// inherit, but the skip is kept for fidelity to the original's numbering),
// and then increments monotonically with wraparound.
type seqnoAllocator struct {
	mu   sync.Mutex
	next uint16
	init bool
}

func (s *seqnoAllocator) next16() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.init {
		var buf [2]byte
		if _, err := rand.Read(buf[:]); err == nil {
			s.next = binary.BigEndian.Uint16(buf[:])
		}
		s.init = true
	}
	if s.next == 0 {
		s.next++
	}
	v := s.next
	s.next++
	return v
}
