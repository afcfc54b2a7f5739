package rdc

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/framer"
	"github.com/dantte-lp/alohamac/internal/radio"
	"github.com/dantte-lp/alohamac/internal/rtimer"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
)

// ErrRadioOff names the case where the RDC layer has been turned off (and
// not told to keep the radio on) — the original's "RDC and radio were
// explicitly turned off" fatal path. Send/SendList report that case as
// TxErrFatal and do not return this error.
var ErrRadioOff = errors.New("rdc: radio turned off")

// Upward is the inbound contract RDC calls into once a frame destined for
// this node (or a broadcast) clears duplicate suppression, handing over
// the parsed payload and its scratchpad attributes — RDC owns its
// scratchpad privately, so this is the only way the layer above ever sees
// an inbound frame's bytes. Defined here by RDC itself as what it requires
// of its caller, the mirror image of mac.RDCDriver: whatever sits above
// RDC (ordinarily *mac.MAC) must satisfy this.
type Upward interface {
	Deliver(payload []byte, attrs scratchpad.Attrs)
}

// Metrics is the small set of counters RDC reports, satisfied by
// *internal/metrics.Collector. Left nil-safe so RDC is usable without a
// metrics backend in tests.
type Metrics interface {
	FramesSent()
	FramesAcked()
	FramesNoAck()
	BroadcastRateLimited()
	DuplicateDropped()
	RadioOn(on bool)
}

// RDC is the radio duty-cycling driver (spec.md components C4–C7).
type RDC struct {
	log     *slog.Logger
	cfg     Config
	radio   radio.Radio
	framer  framer.Framer
	sp      *scratchpad.Scratchpad
	local   addr.Addr
	upward  Upward
	metrics Metrics

	dup           dupFilter
	burstTimer    *rtimer.CoarseTimer
	broadcastMu   sync.Mutex
	broadcastWin  time.Time
	broadcastHits int

	mu                  sync.Mutex
	isOn                bool
	keepRadioOn         bool
	radioIsOn           bool
	weAreSending        bool
	weAreReceivingBurst bool

	sampler *sampler

	// listenTask polls for an arrived frame whenever the radio is on,
	// independent of whichever gate (the sampler's snoop phase, or a
	// plain keep-radio-on hold) turned it on — a stand-in for the
	// hardware receive-complete interrupt a real radio driver would
	// raise straight into NETSTACK_RDC.input().
	listenTask *rtimer.Task
}

// New creates an RDC bound to a radio, a framer, an internally-owned
// scratchpad, and this node's own address (used to decide whether an
// inbound frame is destined for us). Set its upward driver with
// SetUpward before calling Init.
func New(r radio.Radio, fr framer.Framer, local addr.Addr, cfg Config, log *slog.Logger) *RDC {
	if log == nil {
		log = slog.Default()
	}
	d := &RDC{
		log:        log,
		cfg:        cfg,
		radio:      r,
		framer:     fr,
		sp:         scratchpad.New(),
		local:      local,
		burstTimer: rtimer.NewCoarseTimer(),
		listenTask: rtimer.NewTask(),
	}
	d.sampler = newSampler(d)
	return d
}

// SetUpward wires the layer above RDC (ordinarily *mac.MAC). Must be
// called before Init.
func (d *RDC) SetUpward(u Upward) {
	d.upward = u
}

// SetMetrics wires an optional metrics recorder.
func (d *RDC) SetMetrics(m Metrics) {
	d.metrics = m
}

// Init implements mac.RDCDriver: starts the periodic channel sampler
// (aloha.c's init setting contikimac_is_on and scheduling the first
// powercycle rtimer).
func (d *RDC) Init() error {
	d.mu.Lock()
	d.isOn = true
	d.mu.Unlock()
	d.sampler.start()
	return nil
}

// On implements mac.RDCDriver (turn_on): re-enables the sampler.
func (d *RDC) On() error {
	d.mu.Lock()
	already := d.isOn
	d.isOn = true
	d.keepRadioOn = false
	d.mu.Unlock()
	if !already {
		d.sampler.start()
	}
	return nil
}

// Off implements mac.RDCDriver (turn_off): disables the sampler and
// drives the radio to a fixed state, optionally leaving it receiving.
func (d *RDC) Off(keepRadioOn bool) error {
	d.mu.Lock()
	d.isOn = false
	d.keepRadioOn = keepRadioOn
	d.mu.Unlock()
	d.sampler.stop()
	if keepRadioOn {
		d.setRadioOn(true)
		return d.radio.On()
	}
	d.setRadioOn(false)
	return d.radio.Off()
}

// DutyCycle implements mac.RDCDriver (duty_cycle): the wall-clock period
// between channel samples.
func (d *RDC) DutyCycle() time.Duration {
	return d.cfg.CycleTime
}

// --- C4: radio gate -------------------------------------------------

func (d *RDC) sendingOrBursting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.weAreSending || d.weAreReceivingBurst
}

func (d *RDC) setRadioOn(on bool) {
	d.mu.Lock()
	d.radioIsOn = on
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.RadioOn(on)
	}
	if on {
		d.listenStep()
	} else {
		d.listenTask.Stop()
	}
}

// listenStep polls for a fully-received frame while the radio is on,
// regardless of why it's on (sampler snoop, an in-progress strobe, or a
// plain keep-radio-on hold), and dispatches it through Input — except
// while a strobe is in progress, when sendEntry reads the radio itself to
// catch its ACK. Stops re-arming itself the moment the radio goes back off.
func (d *RDC) listenStep() {
	if !d.radioIsCurrentlyOn() {
		return
	}
	d.mu.Lock()
	sending := d.weAreSending
	d.mu.Unlock()
	if !sending && d.radio.PendingPacket() {
		d.Input()
	}
	if d.radioIsCurrentlyOn() {
		d.listenTask.Yield(d.cfg.CCACheckTime, samplerGuard, d.listenStep)
	}
}

func (d *RDC) radioIsCurrentlyOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.radioIsOn
}

// turnRadioOn is the gated `on()` (C4): a no-op unless the sampler is
// enabled and the radio isn't already receiving.
func (d *RDC) turnRadioOn() {
	d.mu.Lock()
	enabled := d.isOn
	already := d.radioIsOn
	d.mu.Unlock()
	if enabled && !already {
		d.setRadioOn(true)
		d.radio.On()
	}
}

// turnRadioOffIfIdle is the gated `off()` (C4): never turns the radio off
// while we are mid-transmit or mid-burst-reception.
func (d *RDC) turnRadioOffIfIdle() {
	if d.sendingOrBursting() {
		return
	}
	d.mu.Lock()
	enabled := d.isOn
	on := d.radioIsOn
	keep := d.keepRadioOn
	d.mu.Unlock()
	if enabled && on && !keep {
		d.setRadioOn(false)
		d.radio.Off()
	}
}
