package core

import "critter/protocol"

// FatalCode identifies why the device halted: a subsystem tag in the high
// nibble and a reason tag in the low nibble. The low nibble is what the
// indicator blinks.
type FatalCode uint8

// Subsystem tags
const (
	SubsysMisc     FatalCode = 0x00
	SubsysSerial   FatalCode = 0x10
	SubsysTWI      FatalCode = 0x20
	SubsysHardware FatalCode = 0x30
	SubsysTimer    FatalCode = 0x40
	SubsysADC      FatalCode = 0x50
	SubsysUI       FatalCode = 0x60
)

// Reason tags
const (
	ReasonTooBig     FatalCode = 0x01
	ReasonBadParam   FatalCode = 0x02
	ReasonBadCall    FatalCode = 0x03
	ReasonBusy       FatalCode = 0x04
	ReasonUnexpected FatalCode = 0x05
	ReasonReuse      FatalCode = 0x06
	ReasonTimeout    FatalCode = 0x07
)

// FatalUnimplemented is raised when application code reaches a call its
// board never provided.
const FatalUnimplemented = SubsysMisc | ReasonBadCall

// Blink timing, in milliseconds of calibrated busy-wait.
const (
	blinkOnMillis    = 250
	blinkOffMillis   = 250
	blinkPauseMillis = 1500

	// Busy-wait iterations per millisecond are derived from the CPU
	// frequency and clamped so the pattern stays readable by a human.
	spinCyclesPerIter = 4
	minItersPerMilli  = 250
	maxItersPerMilli  = 50000
)

// Subsystem returns the subsystem tag.
func (c FatalCode) Subsystem() FatalCode { return c & 0xF0 }

// Reason returns the reason tag.
func (c FatalCode) Reason() FatalCode { return c & 0x0F }

// Valid reports whether both tags are known.
func (c FatalCode) Valid() bool {
	return c.Subsystem() <= SubsysUI && c.Reason() >= ReasonTooBig && c.Reason() <= ReasonTimeout
}

func (c FatalCode) String() string {
	var sub, reason string
	switch c.Subsystem() {
	case SubsysMisc:
		sub = "misc"
	case SubsysSerial:
		sub = "serial"
	case SubsysTWI:
		sub = "twi"
	case SubsysHardware:
		sub = "hardware"
	case SubsysTimer:
		sub = "timer"
	case SubsysADC:
		sub = "adc"
	case SubsysUI:
		sub = "ui"
	default:
		return hex8(uint8(c))
	}
	switch c.Reason() {
	case ReasonTooBig:
		reason = "too-big"
	case ReasonBadParam:
		reason = "bad-param"
	case ReasonBadCall:
		reason = "bad-call"
	case ReasonBusy:
		reason = "busy"
	case ReasonUnexpected:
		reason = "unexpected"
	case ReasonReuse:
		reason = "reuse"
	case ReasonTimeout:
		reason = "timeout"
	default:
		return hex8(uint8(c))
	}
	return sub + "/" + reason
}

// BlinkFunc drives the board's status indicator.
type BlinkFunc func(on bool)

// diagSink is the transport Halt writes its code to. It is the UART.
type diagSink interface {
	Configured() bool
	ForceOut(b byte)
}

// Halt is the process-wide fault sink. Once Fatal is called the device stays
// halted until a hardware reset.
type Halt struct {
	irq   InterruptController
	nv    NVStore
	spin  BusyWait
	trace *Trace
	clock *Clock
	diag  diagSink
	blink BlinkFunc
	park  func(FatalCode)

	halting bool
	code    FatalCode
}

// SetBlink installs the board's indicator. Before this call blinking is a no-op.
func (h *Halt) SetBlink(fn BlinkFunc) {
	if fn == nil {
		fn = func(bool) {}
	}
	h.blink = fn
}

// Halted returns the fatal code once the device has halted.
func (h *Halt) Halted() (FatalCode, bool) {
	return h.code, h.halting
}

// Fatal halts the device. It never returns.
func (h *Halt) Fatal(code FatalCode) {
	h.irq.Disable()

	if h.halting {
		// Fault raised while halting, e.g. from the blink function.
		h.parkOrBlink(h.code)
	}
	h.halting = true
	h.code = code

	if h.nv != nil && h.nv.ReadByte(NVLastFatal) != byte(code) {
		h.nv.WriteByte(NVLastFatal, byte(code))
	}

	// Interrupt-driven sends cannot drain any more.
	if h.diag != nil && h.diag.Configured() {
		h.diag.ForceOut(protocol.SyncByte)
		h.diag.ForceOut(byte(code))
	}

	h.trace.Record(EvtFatal, uint8(code), h.clock.millis, 0)
	DebugPrintln("[HALT] fatal " + code.String() + " (" + hex8(uint8(code)) + ")")
	h.trace.Dump()

	h.parkOrBlink(code)
}

func (h *Halt) parkOrBlink(code FatalCode) {
	if h.park != nil {
		h.park(code)
	}
	for {
		h.blinkCode(code)
	}
}

// blinkCode emits one round of the pattern: Reason() pulses, then a pause.
func (h *Halt) blinkCode(code FatalCode) {
	for i := FatalCode(0); i < code.Reason(); i++ {
		h.blink(true)
		h.waitMillis(blinkOnMillis)
		h.blink(false)
		h.waitMillis(blinkOffMillis)
	}
	h.waitMillis(blinkPauseMillis)
}

func (h *Halt) waitMillis(ms uint32) {
	per := clamp(h.clock.CPUHz()/(spinCyclesPerIter*1000), minItersPerMilli, maxItersPerMilli)
	for i := uint32(0); i < ms; i++ {
		h.spin.Spin(per)
	}
}
