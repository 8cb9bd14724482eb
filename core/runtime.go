package core

import "context"

// Default Options values.
const (
	DefaultCPUHz          = 16000000
	DefaultWatchdogMillis = 2000
)

// Hardware is the set of capabilities a board exposes to the runtime. Nil
// members fall back to inert implementations where that is safe; Timer is
// required.
type Hardware struct {
	IRQ      InterruptController
	Timer    TimerDevice
	UART     UARTDevice
	TWI      TWIDevice
	Pins     [PinGroups]PinPort
	Watchdog Watchdog
	NV       NVStore
	Spin     BusyWait
}

// Options tunes a Runtime.
type Options struct {
	CPUHz          uint32
	TWIRateHz      uint32
	WatchdogMillis uint16

	// Park, if set, is called by Halt instead of blinking forever. It must
	// not return; simulators use it to unwind a halted device.
	Park func(FatalCode)
}

// Board is the application: Setup runs once at boot with interrupts
// enabled and arms whatever tasks and listeners the board needs.
type Board interface {
	Setup(rt *Runtime)
}

// Poller is implemented by boards that want a hook on every idle-loop pass.
type Poller interface {
	Poll()
}

// BoardFunc adapts a plain function to Board.
type BoardFunc func(rt *Runtime)

// Setup calls f(rt).
func (f BoardFunc) Setup(rt *Runtime) {
	f(rt)
}

// Runtime owns one device's worth of runtime state. Instances are
// independent, so a host process can run several.
type Runtime struct {
	Trace  Trace
	Halt   Halt
	Clock  Clock
	Sched  Scheduler
	Serial UART
	Pins   Pins
	TWI    TWI

	hw    Hardware
	opts  Options
	board Board
	poll  Poller
	boots uint16
}

// New wires the runtime components to hw.
func New(hw Hardware, opts Options) *Runtime {
	if hw.IRQ == nil {
		hw.IRQ = defaultInterrupts()
	}
	if hw.Watchdog == nil {
		hw.Watchdog = nopWatchdog{}
	}
	if hw.Spin == nil {
		hw.Spin = loopSpinner{}
	}
	if opts.CPUHz == 0 {
		opts.CPUHz = DefaultCPUHz
	}
	if opts.WatchdogMillis == 0 {
		opts.WatchdogMillis = DefaultWatchdogMillis
	}

	rt := &Runtime{hw: hw, opts: opts}
	irq := hw.IRQ

	rt.Trace = Trace{irq: irq}
	rt.Halt = Halt{
		irq:   irq,
		nv:    hw.NV,
		spin:  hw.Spin,
		trace: &rt.Trace,
		clock: &rt.Clock,
		park:  opts.Park,
	}
	rt.Halt.SetBlink(nil)
	rt.Clock = Clock{irq: irq, dev: hw.Timer, halt: &rt.Halt}
	rt.Sched = Scheduler{
		irq:   irq,
		clock: &rt.Clock,
		halt:  &rt.Halt,
		wdt:   hw.Watchdog,
		trace: &rt.Trace,
	}
	rt.Pins = Pins{irq: irq, halt: &rt.Halt, ports: hw.Pins}
	if hw.UART != nil {
		rt.Serial = UART{
			irq:   irq,
			dev:   hw.UART,
			halt:  &rt.Halt,
			clock: &rt.Clock,
			trace: &rt.Trace,
		}
		rt.Halt.diag = &rt.Serial
	}
	if hw.TWI != nil {
		rt.TWI = TWI{
			irq:    irq,
			dev:    hw.TWI,
			halt:   &rt.Halt,
			sched:  &rt.Sched,
			clock:  &rt.Clock,
			trace:  &rt.Trace,
			rateHz: opts.TWIRateHz,
		}
	}
	return rt
}

// Options returns the effective options.
func (rt *Runtime) Options() Options {
	return rt.opts
}

// BootCount returns the boot counter as of the last Boot.
func (rt *Runtime) BootCount() uint16 {
	return rt.boots
}

// Boot brings the device up: watchdog, reset bookkeeping, clock,
// interrupts, then the board's Setup.
func (rt *Runtime) Boot(board Board) {
	if board == nil {
		rt.Halt.Fatal(SubsysMisc | ReasonBadParam)
	}
	if rt.hw.Timer == nil {
		rt.Halt.Fatal(SubsysTimer | ReasonBadCall)
	}
	wdt := rt.hw.Watchdog
	wdt.Arm(rt.opts.WatchdogMillis)

	cause := wdt.ResetCause()
	if nv := rt.hw.NV; nv != nil {
		nvUpdate(nv, NVPrevResetFlags, nv.ReadByte(NVResetFlags))
		nvUpdate(nv, NVResetFlags, cause)
		boots := uint16(nv.ReadByte(NVBootCount)) | uint16(nv.ReadByte(NVBootCount+1))<<8
		boots++
		nvUpdate(nv, NVBootCount, byte(boots))
		nvUpdate(nv, NVBootCount+1, byte(boots>>8))
		rt.boots = boots
	}

	rt.hw.Timer.Start(rt.opts.CPUHz)
	rt.Clock.Configure(rt.opts.CPUHz)
	rt.Trace.Record(EvtBoot, cause, 0, rt.boots)
	DebugPrintln("[BOOT] cause=" + hex8(cause) + " boots=" + itoa(int(rt.boots)))

	rt.hw.IRQ.Enable()

	rt.board = board
	rt.poll, _ = board.(Poller)
	board.Setup(rt)
	wdt.Reset()
}

// nvUpdate writes b at addr unless it is already there, saving wear.
func nvUpdate(nv NVStore, addr uint16, b byte) {
	if nv.ReadByte(addr) != b {
		nv.WriteByte(addr, b)
	}
}

// RunOnce is one idle-loop pass: the board's poll hook, then due tasks.
func (rt *Runtime) RunOnce() {
	if rt.poll != nil {
		rt.poll.Poll()
	}
	rt.Sched.Drain()
}

// Run loops RunOnce until ctx is done. On a device ctx is never done.
func (rt *Runtime) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rt.RunOnce()
	}
}

// Unimplemented halts with FatalUnimplemented. Boards use it for calls
// they do not provide.
func (rt *Runtime) Unimplemented() {
	rt.Halt.Fatal(FatalUnimplemented)
}

// UnexpectedInterrupt is the handler for vectors nothing claimed.
func (rt *Runtime) UnexpectedInterrupt() {
	rt.Halt.Fatal(SubsysHardware | ReasonUnexpected)
}
