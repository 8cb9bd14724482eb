package sim

import "critter/core"

// UART is the simulated serial port. Transmitted bytes are captured;
// injected bytes arrive one receive interrupt at a time.
type UART struct {
	m *Machine

	// TxPerMilli paces transmission; zero sends instantly.
	TxPerMilli int

	divisor    uint16
	configured bool
	txIE       bool
	budget     int
	out        []byte

	rxReg     byte
	rxFull    bool
	hwOverrun uint32
}

var _ core.UARTDevice = (*UART)(nil)

func (u *UART) Configure(divisor uint16) {
	u.divisor = divisor
	u.configured = true
}

// Divisor returns the programmed baud divisor.
func (u *UART) Divisor() uint16 {
	return u.divisor
}

func (u *UART) WriteData(b byte) {
	u.out = append(u.out, b)
	if u.TxPerMilli > 0 {
		u.budget--
	}
	u.kick()
}

func (u *UART) ReadData() byte {
	u.rxFull = false
	return u.rxReg
}

func (u *UART) TxReady() bool {
	if u.TxPerMilli == 0 || u.budget > 0 {
		return true
	}
	// Time passes while the CPU polls the flag.
	u.m.Timer.advance(1)
	return false
}

func (u *UART) SetTxInterrupt(enabled bool) {
	u.txIE = enabled
	u.kick()
}

func (u *UART) kick() {
	if u.txIE && (u.TxPerMilli == 0 || u.budget > 0) {
		u.m.IRQ.Raise(VecUARTTx)
	}
}

// tick refills the transmit budget once per millisecond.
func (u *UART) tick() {
	if u.TxPerMilli == 0 {
		return
	}
	u.budget = u.TxPerMilli
	u.kick()
}

// Output returns everything transmitted so far.
func (u *UART) Output() []byte {
	return u.out
}

// TakeOutput returns and clears the captured output.
func (u *UART) TakeOutput() []byte {
	out := u.out
	u.out = nil
	return out
}

// Inject delivers data to the receiver. A byte arriving while the previous
// one is still unread is lost, like a hardware overrun.
func (u *UART) Inject(data []byte) {
	for _, b := range data {
		if u.rxFull {
			u.hwOverrun++
			continue
		}
		u.rxReg = b
		u.rxFull = true
		u.m.IRQ.Raise(VecUARTRx)
	}
}

// HardwareOverruns returns bytes lost in the data register itself.
func (u *UART) HardwareOverruns() uint32 {
	return u.hwOverrun
}
