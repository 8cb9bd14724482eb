package core

const (
	clockFracBits = 16
	clockFracMask = 1<<clockFracBits - 1

	// MaxDelayMillis bounds Delay and Udelay. Longer requests are almost
	// always a unit mix-up by the caller.
	MaxDelayMillis = 8000
	MaxDelayMicros = MaxDelayMillis * 1000
)

// Clock turns the free-running 16-bit hardware counter into a wrapping
// millisecond counter. Each fold accumulates delta*scale into a 16.16
// fixed-point phase and shifts whole milliseconds out, so the interrupt path
// never divides.
type Clock struct {
	irq  InterruptController
	dev  TimerDevice
	halt *Halt

	cpuHz   uint32
	scale   uint32 // milliseconds per tick, 16.16
	lastRaw uint16
	phase   uint32
	millis  uint16
}

// Configure derives the tick scale for cpuHz. It may be called again at boot
// to retarget a different crystal.
func (c *Clock) Configure(cpuHz uint32) {
	if cpuHz == 0 {
		c.halt.Fatal(SubsysTimer | ReasonBadParam)
	}
	scale := ((uint64(TimerPrescale*1000) << clockFracBits) + uint64(cpuHz/2)) / uint64(cpuHz)
	if scale == 0 || scale > 0xFFFF {
		// delta*scale must stay inside 32 bits
		c.halt.Fatal(SubsysTimer | ReasonBadParam)
	}

	s := c.irq.Disable()
	defer c.irq.Restore(s)

	c.cpuHz = cpuHz
	c.scale = uint32(scale)
	c.phase = 0
	c.lastRaw = c.dev.Count()
}

// CPUHz returns the configured CPU frequency, zero before Configure.
func (c *Clock) CPUHz() uint32 {
	return c.cpuHz
}

// OnTimerInterrupt is the overflow/compare vector. It must run at least once
// per counter wrap.
func (c *Clock) OnTimerInterrupt() {
	s := c.irq.Disable()
	defer c.irq.Restore(s)
	c.fold()
}

// fold must be called with interrupts disabled
func (c *Clock) fold() {
	raw := c.dev.Count()
	delta := raw - c.lastRaw
	c.lastRaw = raw
	c.phase += uint32(delta) * c.scale
	c.millis += uint16(c.phase >> clockFracBits)
	c.phase &= clockFracMask
}

// ReadTicks returns the raw counter, folding any pending delta first.
func (c *Clock) ReadTicks() uint16 {
	s := c.irq.Disable()
	defer c.irq.Restore(s)
	c.fold()
	return c.lastRaw
}

// ReadMillis returns the current virtual time in milliseconds.
func (c *Clock) ReadMillis() uint16 {
	s := c.irq.Disable()
	defer c.irq.Restore(s)
	c.fold()
	return c.millis
}

// ReadMillisFast returns the virtual time as of the last timer interrupt; it
// can lag by up to one interrupt period.
func (c *Clock) ReadMillisFast() uint16 {
	s := c.irq.Disable()
	defer c.irq.Restore(s)
	return c.millis
}

// TicksFromMicros converts microseconds to timer ticks, rounding up.
func (c *Clock) TicksFromMicros(us uint32) uint32 {
	return uint32((uint64(us)*uint64(c.cpuHz/TimerPrescale) + 999999) / 1000000)
}

// MicrosFromTicks converts timer ticks to microseconds
func (c *Clock) MicrosFromTicks(ticks uint32) uint32 {
	tickHz := c.cpuHz / TimerPrescale
	if tickHz == 0 {
		return 0
	}
	return uint32(uint64(ticks) * 1000000 / uint64(tickHz))
}

// Udelay spins for at least us microseconds.
func (c *Clock) Udelay(us uint32) {
	if us > MaxDelayMicros {
		c.halt.Fatal(SubsysTimer | ReasonTooBig)
	}
	ticks := c.TicksFromMicros(us)
	if ticks == 0 {
		return
	}
	// The first tick edge can come right after the start read.
	remaining := ticks + 1
	last := c.ReadTicks()
	for remaining > 0 {
		now := c.ReadTicks()
		step := uint32(now - last)
		last = now
		if step >= remaining {
			return
		}
		remaining -= step
	}
}

// Delay spins for at least ms milliseconds of virtual time.
func (c *Clock) Delay(ms uint32) {
	if ms > MaxDelayMillis {
		c.halt.Fatal(SubsysTimer | ReasonTooBig)
	}
	if ms == 0 {
		return
	}
	// Wait for ms+1 boundaries; the first may be a tick away.
	start := c.ReadMillis()
	for uint32(c.ReadMillis()-start) <= ms {
	}
}
