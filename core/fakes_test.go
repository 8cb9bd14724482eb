package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testCPUHz gives an exact 256 ticks per millisecond.
const testCPUHz = 16384000

type fakeIRQ struct {
	enabled bool

	// onEnable runs pending "vectors" whenever interrupts come back on.
	onEnable func()
	inHook   bool
}

func (f *fakeIRQ) deliver() {
	if f.enabled && f.onEnable != nil && !f.inHook {
		f.inHook = true
		f.onEnable()
		f.inHook = false
	}
}

func (f *fakeIRQ) Disable() IRQState {
	s := IRQState(0)
	if f.enabled {
		s = 1
	}
	f.enabled = false
	return s
}

func (f *fakeIRQ) Restore(s IRQState) {
	f.enabled = s != 0
	f.deliver()
}

func (f *fakeIRQ) Enable() {
	f.enabled = true
	f.deliver()
}

// fakeTimer advances by step ticks on every read.
type fakeTimer struct {
	count   uint16
	step    uint16
	reads   int
	started uint32
	total   uint64
}

func (f *fakeTimer) Start(cpuHz uint32) { f.started = cpuHz }

func (f *fakeTimer) Count() uint16 {
	f.reads++
	c := f.count
	f.count += f.step
	f.total += uint64(f.step)
	return c
}

func (f *fakeTimer) advance(ticks int) {
	f.count += uint16(ticks)
	f.total += uint64(ticks)
}

type fakeUART struct {
	divisor  uint16
	txOn     bool
	out      []byte
	rxReg    byte
	notReady int
}

func (f *fakeUART) Configure(d uint16) { f.divisor = d }
func (f *fakeUART) WriteData(b byte)   { f.out = append(f.out, b) }
func (f *fakeUART) ReadData() byte     { return f.rxReg }
func (f *fakeUART) SetTxInterrupt(on bool) {
	f.txOn = on
}

func (f *fakeUART) TxReady() bool {
	if f.notReady > 0 {
		f.notReady--
		return false
	}
	return true
}

type fakePort struct {
	level   uint8
	mask    uint8
	enabled bool
	reads   int
}

func (f *fakePort) Read() uint8                 { f.reads++; return f.level }
func (f *fakePort) SetMask(m uint8)             { f.mask = m }
func (f *fakePort) SetInterruptEnabled(on bool) { f.enabled = on }

type fakeNV struct {
	mem    [64]byte
	writes int
}

func (f *fakeNV) ReadByte(addr uint16) byte { return f.mem[addr] }
func (f *fakeNV) WriteByte(addr uint16, b byte) {
	f.mem[addr] = b
	f.writes++
}

type fakeWatchdog struct {
	armed  uint16
	resets int
	cause  uint8
}

func (f *fakeWatchdog) Arm(ms uint16)     { f.armed = ms }
func (f *fakeWatchdog) Reset()            { f.resets++ }
func (f *fakeWatchdog) ResetCause() uint8 { return f.cause }

type fakeSpin struct{ iters uint64 }

func (f *fakeSpin) Spin(n uint32) { f.iters += uint64(n) }

// halted is the panic value the test Park hook unwinds with.
type halted struct{ code FatalCode }

type testRig struct {
	rt    *Runtime
	irq   *fakeIRQ
	timer *fakeTimer
	uart  *fakeUART
	twi   *fakeTWI
	ports [PinGroups]*fakePort
	nv    *fakeNV
	wdt   *fakeWatchdog
	spin  *fakeSpin
}

func newRig(t *testing.T, cpuHz uint32) *testRig {
	t.Helper()
	r := &testRig{
		irq:   &fakeIRQ{},
		timer: &fakeTimer{},
		uart:  &fakeUART{},
		twi:   newFakeTWI(),
		nv:    &fakeNV{},
		wdt:   &fakeWatchdog{cause: ResetPowerOn},
		spin:  &fakeSpin{},
	}
	hw := Hardware{
		IRQ:      r.irq,
		Timer:    r.timer,
		UART:     r.uart,
		TWI:      r.twi,
		Watchdog: r.wdt,
		NV:       r.nv,
		Spin:     r.spin,
	}
	for i := range r.ports {
		r.ports[i] = &fakePort{}
		hw.Pins[i] = r.ports[i]
	}
	r.rt = New(hw, Options{
		CPUHz: cpuHz,
		Park:  func(c FatalCode) { panic(halted{c}) },
	})
	r.irq.onEnable = func() {
		for r.twi.auto && r.twi.pending {
			r.twi.pending = false
			r.rt.TWI.OnInterrupt()
		}
	}
	return r
}

// boot boots with an empty board.
func (r *testRig) boot() *testRig {
	r.rt.Boot(BoardFunc(func(*Runtime) {}))
	return r
}

// advanceMillis moves the hardware counter forward and runs the timer vector.
func (r *testRig) advanceMillis(ms int) {
	perMs := int(r.rt.Clock.CPUHz() / TimerPrescale / 1000)
	for i := 0; i < ms; i++ {
		r.timer.advance(perMs)
		r.rt.Clock.OnTimerInterrupt()
	}
}

func requireFatal(t *testing.T, want FatalCode, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected fatal %s", want)
		h, ok := r.(halted)
		require.True(t, ok, "unexpected panic %v", r)
		require.Equal(t, want, h.code, "got %s", h.code)
	}()
	fn()
}
