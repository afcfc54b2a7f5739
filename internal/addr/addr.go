// Package addr implements the fixed-width link-layer address used across
// the ALOHA MAC and ContikiMAC-style RDC layers.
package addr

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Size is the number of bytes in a link-layer address. Matches the default
// Rime/Contiki linkaddr size for the 8-bit platforms this stack targets.
const Size = 2

// Addr is an opaque fixed-width link-layer address.
type Addr [Size]byte

// Null is the reserved all-zero address, used as the broadcast destination.
var Null = Addr{}

// IsNull reports whether a is the all-zero broadcast address.
func (a Addr) IsNull() bool {
	return a == Null
}

// Equal reports whether a and b are the same address.
func (a Addr) Equal(b Addr) bool {
	return a == b
}

// String renders the address as colon-separated hex bytes, e.g. "03:00".
func (a Addr) String() string {
	s := make([]byte, 0, Size*3-1)
	for i, b := range a {
		if i > 0 {
			s = append(s, ':')
		}
		s = fmt.Appendf(s, "%02x", b)
	}
	return string(s)
}

// FromBytes builds an Addr from a byte slice. It returns an error if b is
// not exactly Size bytes long.
func FromBytes(b []byte) (Addr, error) {
	var a Addr
	if len(b) != Size {
		return a, fmt.Errorf("addr: want %d bytes, got %d", Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Parse inverts String: it decodes Size colon-separated hex bytes, e.g.
// "03:0a", into an Addr. Used by configuration loading to turn a
// human-readable node or neighbor address into the wire form.
func Parse(s string) (Addr, error) {
	var a Addr
	parts := strings.Split(s, ":")
	if len(parts) != Size {
		return a, fmt.Errorf("addr: parse %q: want %d colon-separated bytes, got %d", s, Size, len(parts))
	}
	for i, part := range parts {
		b, err := hex.DecodeString(part)
		if err != nil || len(b) != 1 {
			return a, fmt.Errorf("addr: parse %q: invalid byte %q", s, part)
		}
		a[i] = b[0]
	}
	return a, nil
}
