// Package rtimer implements the timer service (spec.md §4.3, component
// C3): one-shot coarse (ctimer) timers, one-shot fine (rtimer) timers, and
// the cooperative-suspension primitive the RDC sampler uses to yield and
// resume across fine-timer callbacks.
//
// Grounded on the teacher's time.Timer reset/drain discipline
// (internal/bfd/session.go resetTxTimer/resetDetectTimer/drainTimer): a
// one-shot timer is always stopped before being re-armed, which cancels a
// pending fire from the previous arm. A callback that has already started
// running is not waited for.
package rtimer

import "time"

// Ticks is a virtual rtimer tick count, used to express the spec's
// fine-timer constants (CYCLE_TIME, CCA_ACTIVE_TIME, ...) the way the
// original source does, independent of wall-clock representation.
type Ticks int64

// Second is the number of Ticks per second — the stack's RTIMER_ARCH_SECOND
// analogue. 32768 matches the original's target platform (a 32.768kHz
// real-time clock), and anchors every fractional constant derived from it
// (spec.md §6, SPEC_FULL.md "SUPPLEMENTED FEATURES").
const Second Ticks = 32768

// Duration converts a tick count to a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t) * time.Second / time.Duration(Second)
}

// FromDuration converts a time.Duration to a tick count, truncating toward
// zero.
func FromDuration(d time.Duration) Ticks {
	return Ticks(d * time.Duration(Second) / time.Second)
}

// CoarseTimer is a one-shot, millisecond-resolution timer (spec.md's
// "ctimer"), used for MAC backoff scheduling and the RDC burst
// inter-packet deadline.
type CoarseTimer struct {
	timer *time.Timer
}

// NewCoarseTimer creates a CoarseTimer that is not yet armed.
func NewCoarseTimer() *CoarseTimer {
	return &CoarseTimer{}
}

// Set arms the timer to invoke fn once after d, replacing any previous
// pending fire. Safe to call repeatedly; the previous timer, if any, is
// stopped first, which cancels its pending fire. A previous callback that
// is already running is not waited for.
func (c *CoarseTimer) Set(d time.Duration, fn func()) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(d, fn)
}

// Stop cancels a pending fire, if any. It is a no-op if the timer was never
// armed or has already fired.
func (c *CoarseTimer) Stop() {
	if c.timer != nil {
		c.timer.Stop()
	}
}

// FineTimer is a one-shot, sub-millisecond real-time timer (spec.md's
// "rtimer"), used by the RDC sampler. Arming for a time already past, or
// within the guard window of now, bumps the target to now+guard (spec.md
// §4.3).
type FineTimer struct {
	timer *time.Timer
}

// NewFineTimer creates a FineTimer that is not yet armed.
func NewFineTimer() *FineTimer {
	return &FineTimer{}
}

// ArmAbsolute arms the timer to invoke fn at target, or at now+guard if
// target falls at or before now+guard. Returns the actual fire time.
func (f *FineTimer) ArmAbsolute(target time.Time, guard time.Duration, fn func()) time.Time {
	if f.timer != nil {
		f.timer.Stop()
	}

	now := time.Now()
	if !target.After(now.Add(guard)) {
		target = now.Add(guard)
	}

	f.timer = time.AfterFunc(target.Sub(now), fn)
	return target
}

// ArmRelative arms the timer to invoke fn after dt, applying the same
// guard-window floor as ArmAbsolute.
func (f *FineTimer) ArmRelative(dt time.Duration, guard time.Duration, fn func()) time.Time {
	return f.ArmAbsolute(time.Now().Add(dt), guard, fn)
}

// Stop cancels a pending fire, if any.
func (f *FineTimer) Stop() {
	if f.timer != nil {
		f.timer.Stop()
	}
}

// Task is the cooperative-suspension primitive a single logical task (the
// RDC sampler) uses to yield and be re-entered by a later timer callback
// with its state preserved (spec.md §4.3, §9).
//
// Go has no coroutine primitive that suspends mid-function the way a
// protothread does, so "yield" is realized as: the step function returns,
// and FineTimer.ArmRelative/ArmAbsolute schedules the next step to run on
// its own goroutine. Because only one such callback is ever pending at a
// time (Yield always re-arms through the same *Task), the sequence of
// steps behaves as a single cooperative thread of control — nothing else
// is allowed to touch the task's state between one step returning and the
// next one starting. Callers preserve "locals" across a Yield simply by
// storing them as fields on the struct that owns the Task (e.g. rdc's
// sampler), exactly as spec.md §9 recommends ("enum-based state
// machine (state + locals) resumed from each fine-timer callback").
type Task struct {
	fine *FineTimer
}

// NewTask creates a Task ready to run its first step.
func NewTask() *Task {
	return &Task{fine: NewFineTimer()}
}

// Yield suspends the task, arranging for step to resume it after dt. Yield
// never blocks the calling goroutine.
func (t *Task) Yield(dt, guard time.Duration, step func()) {
	t.fine.ArmRelative(dt, guard, step)
}

// YieldUntil suspends the task until the absolute time at (subject to the
// guard-window floor), then resumes it with step.
func (t *Task) YieldUntil(at time.Time, guard time.Duration, step func()) time.Time {
	return t.fine.ArmAbsolute(at, guard, step)
}

// Stop cancels any pending resumption.
func (t *Task) Stop() {
	t.fine.Stop()
}
