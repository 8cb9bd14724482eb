package sim

import "critter/core"

// DefaultAutoStep is how far the counter moves on every read, so code that
// polls the clock sees time pass.
const DefaultAutoStep = 4

// Timer is the free-running counter. It raises VecTimer once per simulated
// millisecond and drives the other devices' per-millisecond work.
type Timer struct {
	m *Machine

	// AutoStep ticks are added after every Count read.
	AutoStep uint16

	started    bool
	count      uint16
	ticksPerMs uint32
	sub        uint32
	elapsed    uint64
}

var _ core.TimerDevice = (*Timer)(nil)

func (t *Timer) Start(cpuHz uint32) {
	t.ticksPerMs = cpuHz / core.TimerPrescale / 1000
	if t.ticksPerMs == 0 {
		t.ticksPerMs = 1
	}
	t.started = true
}

func (t *Timer) Count() uint16 {
	c := t.count
	if t.started && t.AutoStep > 0 {
		t.advance(uint32(t.AutoStep))
	}
	return c
}

// Elapsed returns whole simulated milliseconds since Start.
func (t *Timer) Elapsed() uint64 {
	return t.elapsed
}

// AdvanceMillis moves time forward by ms milliseconds.
func (t *Timer) AdvanceMillis(ms uint32) {
	if !t.started {
		return
	}
	t.advance(ms * t.ticksPerMs)
}

func (t *Timer) advance(ticks uint32) {
	for ticks > 0 {
		n := t.ticksPerMs - t.sub
		if ticks < n {
			n = ticks
		}
		t.count += uint16(n)
		t.sub += n
		ticks -= n
		if t.sub == t.ticksPerMs {
			t.sub = 0
			t.elapsed++
			t.m.UART.tick()
			t.m.IRQ.Raise(VecTimer)
		}
	}
}
