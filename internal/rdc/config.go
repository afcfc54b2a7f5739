// Package rdc implements the ContikiMAC-style radio duty cycling layer
// (spec.md §4.4–§4.7, components C4–C7): the radio on/off gate, the
// strobe-based unicast/broadcast transmitter, the periodic channel-sampling
// state machine, and the receive path with duplicate suppression and burst
// continuation.
//
// Grounded directly on
// original_source/core/net/mac/contikimac/contikimac-for-aloha-rdc.c —
// this package is a line-for-line idiomatic-Go reimplementation of that
// file's on/off/powercycle/send_packet/qsend_list/input_packet functions,
// with Contiki's rtimer-ISR busy-polling replaced by
// internal/rtimer.Task's cooperative yield/resume and its packetbuf
// globals replaced by an explicitly-held internal/scratchpad.Scratchpad.
package rdc

import "time"

// Config mirrors the tunables contikimac-for-aloha-rdc.c derives from
// RTIMER_ARCH_SECOND (spec.md §6's configuration surface), expressed as
// time.Duration instead of raw tick counts.
type Config struct {
	// ChannelCheckRate is the number of channel samples per second
	// (NETSTACK_RDC_CHANNEL_CHECK_RATE); CycleTime is derived from it.
	ChannelCheckRate int

	CycleTime                     time.Duration
	CCACheckTime                  time.Duration
	CCASleepTime                  time.Duration
	CCAActiveTime                 time.Duration
	ListenTimeAfterPacketDetected time.Duration
	MaxSilencePeriods             int
	MaxNonActivityPeriods         int
	WithFastSleep                 bool

	StrobeTime                 time.Duration
	InterPacketInterval        time.Duration
	AfterAckDetectedWaitTime   time.Duration
	InterPacketDeadline        time.Duration
	BroadcastRateLimitPerSecond int // 0 disables the limiter
}

// DefaultConfig reproduces the original's default constants (CCA_COUNT_MAX
// = 2, CCA_ACTIVE_TIME = TEN_PERCENT_DUTY_CYCLE, etc.), derived the same
// way the C macros are: from rtimer.Second (RTIMER_ARCH_SECOND).
func DefaultConfig() Config {
	const ccaCountMax = 2
	ccaCheckTime := rtimerFraction(8192)
	ccaSleepTime := rtimerFraction(2000)
	checkTime := time.Duration(ccaCountMax) * (ccaCheckTime + ccaSleepTime)
	cycleTime := time.Second / time.Duration(8) // ChannelCheckRate default 8Hz
	ccaActiveTime := rtimerTicks(455)            // TEN_PERCENT_DUTY_CYCLE

	return Config{
		ChannelCheckRate:              8,
		CycleTime:                     cycleTime,
		CCACheckTime:                  ccaCheckTime,
		CCASleepTime:                  ccaSleepTime,
		CCAActiveTime:                 ccaActiveTime,
		ListenTimeAfterPacketDetected: rtimerFraction(80),
		MaxSilencePeriods:             5,
		MaxNonActivityPeriods:         10,
		WithFastSleep:                 true,
		StrobeTime:                    cycleTime + 2*checkTime,
		InterPacketInterval:           rtimerFraction(2500),
		AfterAckDetectedWaitTime:      rtimerFraction(1500),
		InterPacketDeadline:           time.Second / 32,
		BroadcastRateLimitPerSecond:   0,
	}
}

// rtimerSecond mirrors rtimer.Second without importing internal/rtimer
// just for this one constant, keeping this file's constant derivations
// self-contained and directly comparable to the C macros they mirror
// (e.g. `RTIMER_ARCH_SECOND / 8192`).
const rtimerSecond = 32768

// rtimerFraction converts a `RTIMER_ARCH_SECOND / denominator` macro into a
// time.Duration. Tick-to-duration conversion cancels RTIMER_ARCH_SECOND
// exactly, leaving time.Second / denominator.
func rtimerFraction(denominator int64) time.Duration {
	return time.Second / time.Duration(denominator)
}

// rtimerTicks converts a literal rtimer tick count into a time.Duration.
func rtimerTicks(ticks int64) time.Duration {
	return time.Duration(ticks) * time.Second / time.Duration(rtimerSecond)
}
