package core

import "critter/protocol"

// SupportedBauds are the rates Configure accepts.
var SupportedBauds = [...]uint32{2400, 4800, 9600, 19200, 38400, 57600, 115200, 250000, 500000, 1000000}

const (
	baudMatchPermille = 20 // requested rate vs table entry
	baudErrorPermille = 25 // achieved rate vs table entry
	maxBaudDivisor    = 0x0FFF
)

// UART is the interrupt-driven serial transport: one receive and one
// transmit ring, filled and drained from the data-register interrupts.
type UART struct {
	irq   InterruptController
	dev   UARTDevice
	halt  *Halt
	clock *Clock
	trace *Trace

	rx protocol.Ring
	tx protocol.Ring

	configured  bool
	baud        uint32
	overruns    uint16
	overrunHook func()
}

// BaudDivisor returns the double-speed divisor for the supported rate
// nearest baud, or false when no rate is close enough.
func BaudDivisor(baud, cpuHz uint32) (uint16, uint32, bool) {
	if baud == 0 || cpuHz == 0 {
		return 0, 0, false
	}
	best := SupportedBauds[0]
	for _, b := range SupportedBauds[1:] {
		if absDiff(b, baud) < absDiff(best, baud) {
			best = b
		}
	}
	if uint64(absDiff(best, baud))*1000 > uint64(baud)*baudMatchPermille {
		return 0, 0, false
	}

	div := (uint64(cpuHz) + 4*uint64(best)) / (8 * uint64(best))
	if div == 0 || div-1 > maxBaudDivisor {
		return 0, 0, false
	}
	actual := uint32(uint64(cpuHz) / (8 * div))
	if uint64(absDiff(actual, best))*1000 > uint64(best)*baudErrorPermille {
		return 0, 0, false
	}
	return uint16(div - 1), best, true
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// Configure programs the port for baud at cpuHz and resets both rings.
func (u *UART) Configure(baud, cpuHz uint32) {
	div, actual, ok := BaudDivisor(baud, cpuHz)
	if !ok {
		u.halt.Fatal(SubsysSerial | ReasonBadParam)
	}

	s := u.irq.Disable()
	defer u.irq.Restore(s)

	u.rx.Reset()
	u.tx.Reset()
	u.dev.SetTxInterrupt(false)
	u.dev.Configure(div)
	u.baud = actual
	u.configured = true
}

// Configured reports whether Configure has run.
func (u *UART) Configured() bool {
	return u.configured
}

// Baud returns the configured table rate.
func (u *UART) Baud() uint32 {
	return u.baud
}

// Send queues as much of data as fits and returns the count. It never blocks.
func (u *UART) Send(data []byte) int {
	if !u.configured {
		u.halt.Fatal(SubsysSerial | ReasonBadCall)
	}

	s := u.irq.Disable()
	defer u.irq.Restore(s)

	n := u.tx.Write(data)
	if n > 0 {
		u.dev.SetTxInterrupt(true)
	}
	return n
}

// SendAll queues all of data, sleeping 1 ms whenever the ring is full.
// Not for interrupt context.
func (u *UART) SendAll(data []byte) {
	for len(data) > 0 {
		n := u.Send(data)
		data = data[n:]
		if len(data) > 0 {
			u.clock.Delay(1)
		}
	}
}

// Available returns the number of received bytes waiting.
func (u *UART) Available() int {
	s := u.irq.Disable()
	defer u.irq.Restore(s)
	return u.rx.Available()
}

// Read copies received bytes into buf.
func (u *UART) Read(buf []byte) int {
	s := u.irq.Disable()
	defer u.irq.Restore(s)
	return u.rx.Read(buf)
}

// Getch returns the oldest received byte.
func (u *UART) Getch() (byte, bool) {
	s := u.irq.Disable()
	defer u.irq.Restore(s)
	return u.rx.Pop()
}

// SetOverrunHook installs a callback run, in interrupt context, whenever a
// received byte is dropped because the ring is full.
func (u *UART) SetOverrunHook(fn func()) {
	s := u.irq.Disable()
	defer u.irq.Restore(s)
	u.overrunHook = fn
}

// Overruns returns the number of received bytes dropped so far.
func (u *UART) Overruns() uint16 {
	s := u.irq.Disable()
	defer u.irq.Restore(s)
	return u.overruns
}

// ForceOut writes b straight to the data register, waiting for it to empty.
// Only for the halt path, where interrupts are gone for good.
func (u *UART) ForceOut(b byte) {
	for !u.dev.TxReady() {
	}
	u.dev.WriteData(b)
}

// OnRxInterrupt is the receive-complete vector. When the ring is full the new
// byte is dropped and the bytes already queued are kept.
func (u *UART) OnRxInterrupt() {
	s := u.irq.Disable()
	defer u.irq.Restore(s)

	b := u.dev.ReadData()
	if u.rx.Push(b) {
		return
	}
	u.overruns++
	u.trace.Record(EvtRxOverrun, b, u.clock.millis, u.overruns)
	if u.overrunHook != nil {
		u.overrunHook()
	}
}

// OnTxEmptyInterrupt is the data-register-empty vector.
func (u *UART) OnTxEmptyInterrupt() {
	s := u.irq.Disable()
	defer u.irq.Restore(s)

	b, ok := u.tx.Pop()
	if !ok {
		u.dev.SetTxInterrupt(false)
		return
	}
	u.dev.WriteData(b)
}
