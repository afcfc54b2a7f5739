package rdc

import (
	"time"

	"github.com/dantte-lp/alohamac/internal/rtimer"
)

// samplerGuard is the minimum lead time sampler re-arms itself with — the
// floor rtimer.Task.Yield/YieldUntil enforce so a step scheduled for "now"
// still actually suspends instead of firing synchronously.
const samplerGuard = 100 * time.Microsecond

// sampler is the periodic channel-sampling state machine (powercycle):
// wake once per CycleTime, take up to CCA_COUNT_MAX clear-channel
// assessments, and either go back to sleep (channel clear) or escalate
// into snooping for an in-progress transmission (channel busy).
//
// Expressed as a sequence of step methods threaded through a single
// *rtimer.Task rather than contikimac-for-aloha-rdc.c's busy-polling
// rtimer ISR loop — each step does one unit of work and re-arms the next
// one, so the goroutine backing the task is never blocked waiting.
type sampler struct {
	d    *RDC
	task *rtimer.Task

	running bool

	cycleStart time.Time
	cycleIndex uint64

	ccaCount       int
	silencePeriods int
	nonActivityRun int
}

func newSampler(d *RDC) *sampler {
	return &sampler{d: d, task: rtimer.NewTask()}
}

// start (re)arms the sampler at the next cycle boundary. A no-op if
// already running.
func (s *sampler) start() {
	if s.running {
		return
	}
	s.running = true
	s.cycleStart = time.Now()
	s.cycleIndex = 0
	s.armCycleStart()
}

// stop halts the sampler and cancels any pending step.
func (s *sampler) stop() {
	s.running = false
	s.task.Stop()
}

func (s *sampler) armCycleStart() {
	s.task.YieldUntil(s.cycleStart, samplerGuard, s.cycleStartStep)
}

// cycleStartStep begins one powercycle: aloha.c/contikimac never samples
// while the strobe transmitter or a burst reception is in progress (C4),
// matching "we_are_sending || we_are_receiving_burst" in the original.
func (s *sampler) cycleStartStep() {
	if !s.running {
		return
	}
	if s.d.sendingOrBursting() {
		s.advanceCycle()
		return
	}

	if s.fastSleepSkipsThisCycle() {
		s.advanceCycle()
		return
	}

	s.d.turnRadioOn()
	s.ccaCount = 0
	s.ccaStep()
}

// fastSleepSkipsThisCycle implements the original's WITH_FAST_SLEEP
// shortcut: once MaxNonActivityPeriods consecutive cycles have seen no
// channel activity at all, sample only every other cycle instead of
// every cycle, halving duty cycle energy during long idle stretches.
func (s *sampler) fastSleepSkipsThisCycle() bool {
	if !s.d.cfg.WithFastSleep {
		return false
	}
	if s.nonActivityRun < s.d.cfg.MaxNonActivityPeriods {
		return false
	}
	return s.cycleIndex%2 == 1
}

// ccaStep takes one clear-channel assessment. Up to CCA_COUNT_MAX are
// taken per cycle before concluding the channel is simply clear.
func (s *sampler) ccaStep() {
	if !s.running {
		return
	}

	clear := s.d.radio.ChannelClear()
	s.ccaCount++

	if !clear {
		s.nonActivityRun = 0
		s.enterListenAfterDetect()
		return
	}

	if s.ccaCount >= ccaCountMax {
		s.nonActivityRun++
		s.d.turnRadioOffIfIdle()
		s.advanceCycle()
		return
	}

	s.task.Yield(s.d.cfg.CCASleepTime, samplerGuard, s.ccaStep)
}

// ccaCountMax mirrors the original's CCA_COUNT_MAX.
const ccaCountMax = 2

// enterListenAfterDetect keeps the radio on a little longer after a CCA
// probe reports a busy channel, giving a preamble time to resolve into a
// receivable packet before committing to full snooping.
func (s *sampler) enterListenAfterDetect() {
	s.silencePeriods = 0
	s.task.Yield(s.d.cfg.ListenTimeAfterPacketDetected, samplerGuard, s.afterDetectStep)
}

func (s *sampler) afterDetectStep() {
	if !s.running {
		return
	}
	if s.d.radio.ReceivingPacket() || s.d.radio.PendingPacket() {
		s.snoopStep()
		return
	}
	// Busy CCA that never turned into an actual reception — a neighbor's
	// own CCA probe, most likely. Go back to sleep for the rest of the
	// cycle.
	s.d.turnRadioOffIfIdle()
	s.advanceCycle()
}

// snoopStep keeps the radio on, watching for a packet to fully arrive,
// until either one does (finishSnooping drains and dispatches it) or the
// channel has been silent for MaxSilencePeriods consecutive checks.
func (s *sampler) snoopStep() {
	if !s.running {
		return
	}
	if s.d.radio.PendingPacket() {
		s.finishSnooping()
		return
	}
	if s.d.radio.ReceivingPacket() {
		s.silencePeriods = 0
	} else {
		s.silencePeriods++
	}
	if s.silencePeriods >= s.d.cfg.MaxSilencePeriods {
		s.finishSnooping()
		return
	}
	s.task.Yield(s.d.cfg.CCACheckTime, samplerGuard, s.snoopStep)
}

func (s *sampler) finishSnooping() {
	if s.d.radio.PendingPacket() {
		s.d.Input()
	}
	s.d.turnRadioOffIfIdle()
	s.advanceCycle()
}

func (s *sampler) advanceCycle() {
	if !s.running {
		return
	}
	s.cycleIndex++
	s.cycleStart = s.cycleStart.Add(s.d.cfg.CycleTime)
	s.armCycleStart()
}
