package radio

import (
	"errors"
	"sync"
)

// ErrNoPendingPacket is returned by MediumRadio.Read when no frame is
// waiting.
var ErrNoPendingPacket = errors.New("radio: no pending packet")

// Medium is an in-process, shared broadcast channel joining a set of
// MediumRadio instances. It stands in for the physical radio channel in
// tests, examples, and the reference daemon, exactly as spec.md's "radio
// driver" is an external collaborator reached only through the Radio
// interface.
//
// A transmission that starts while another radio's transmission is still
// in progress observes TxResultCollision; the transmission already in
// progress reports TxResultOK. Transmit delivers to every listening member
// synchronously, so two transmissions overlap only while their Transmit
// calls run at the same time. ChannelClear reports busy for the duration.
type Medium struct {
	mu       sync.Mutex
	members  map[*MediumRadio]struct{}
	inFlight int
}

// NewMedium creates an empty shared medium.
func NewMedium() *Medium {
	return &Medium{members: make(map[*MediumRadio]struct{})}
}

func (m *Medium) join(r *MediumRadio) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[r] = struct{}{}
}

func (m *Medium) leave(r *MediumRadio) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, r)
}

func (m *Medium) transmit(from *MediumRadio, frame []byte) TxResult {
	m.mu.Lock()
	m.inFlight++
	collided := m.inFlight > 1
	recipients := make([]*MediumRadio, 0, len(m.members))
	for r := range m.members {
		if r != from {
			recipients = append(recipients, r)
		}
	}
	m.mu.Unlock()

	for _, r := range recipients {
		r.deliver(frame)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if collided {
		return TxResultCollision
	}
	return TxResultOK
}

func (m *Medium) busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight > 0
}

// MediumRadio implements Radio against a shared Medium.
type MediumRadio struct {
	medium *Medium

	mu         sync.Mutex
	on         bool
	prepared   []byte
	pending    []byte
	hasPending bool
}

// NewMediumRadio creates a MediumRadio joined to m. Call Close to leave the
// medium.
func NewMediumRadio(m *Medium) *MediumRadio {
	r := &MediumRadio{medium: m}
	m.join(r)
	return r
}

// Close removes this radio from its medium.
func (r *MediumRadio) Close() {
	r.medium.leave(r)
}

// Prepare implements Radio.
func (r *MediumRadio) Prepare(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared = append(r.prepared[:0], frame...)
	return nil
}

// Transmit implements Radio.
func (r *MediumRadio) Transmit(length int) TxResult {
	r.mu.Lock()
	if r.prepared == nil {
		r.mu.Unlock()
		return TxResultError
	}
	n := length
	if n > len(r.prepared) {
		n = len(r.prepared)
	}
	frame := make([]byte, n)
	copy(frame, r.prepared[:n])
	r.mu.Unlock()

	return r.medium.transmit(r, frame)
}

// On implements Radio.
func (r *MediumRadio) On() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.on = true
	return nil
}

// Off implements Radio.
func (r *MediumRadio) Off() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.on = false
	return nil
}

// Read implements Radio.
func (r *MediumRadio) Read(buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasPending {
		return 0, ErrNoPendingPacket
	}
	n := copy(buf, r.pending)
	r.hasPending = false
	r.pending = nil
	return n, nil
}

// ChannelClear implements Radio.
func (r *MediumRadio) ChannelClear() bool {
	return !r.medium.busy()
}

// ReceivingPacket implements Radio. The reference medium delivers frames
// atomically (no partial-reception window to observe), so this always
// reports false; a hardware radio driver would report true mid-preamble.
func (r *MediumRadio) ReceivingPacket() bool {
	return false
}

// PendingPacket implements Radio.
func (r *MediumRadio) PendingPacket() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasPending
}

func (r *MediumRadio) deliver(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.on {
		return
	}
	r.pending = append([]byte(nil), frame...)
	r.hasPending = true
}
