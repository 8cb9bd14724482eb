// Package sim is a host-side model of the robot controller: interrupt
// controller, timer, serial port, two-wire bus, pin-change ports, EEPROM and
// watchdog, wired to a core.Runtime.
package sim

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"critter/core"
)

// ErrNoPin is returned for pins the ports do not have.
var ErrNoPin = errors.New("no such pin")

// Halted is returned once the simulated device has stopped on a fatal
// error.
type Halted struct {
	Code core.FatalCode
}

func (h Halted) Error() string {
	return "device halted: " + h.Code.String()
}

// Config selects the simulated hardware.
type Config struct {
	Options core.Options // Park is replaced by the machine

	ResetCause uint8
	AutoStep   uint16
	TxPerMilli int
	StopPolls  int
}

// Machine is one simulated controller running one runtime.
type Machine struct {
	IRQ      *Interrupts
	Timer    *Timer
	UART     *UART
	TWI      *TWI
	Ports    [core.PinGroups]*Port
	EEPROM   *EEPROM
	Watchdog *Watchdog

	RT *core.Runtime

	spin   *spinner
	halted bool
	code   core.FatalCode
}

// New builds a machine. The EEPROM starts blank.
func New(cfg Config) *Machine {
	return NewWithEEPROM(cfg, nil)
}

// NewWithEEPROM builds a machine around an existing EEPROM, so a test can
// observe what survives a reset.
func NewWithEEPROM(cfg Config, nv *EEPROM) *Machine {
	if nv == nil {
		nv = &EEPROM{}
	}
	if cfg.ResetCause == 0 {
		cfg.ResetCause = core.ResetPowerOn
	}
	if cfg.AutoStep == 0 {
		cfg.AutoStep = DefaultAutoStep
	}

	m := &Machine{
		IRQ:      &Interrupts{},
		EEPROM:   nv,
		Watchdog: &Watchdog{Cause: cfg.ResetCause},
		spin:     &spinner{},
	}
	m.Timer = &Timer{m: m, AutoStep: cfg.AutoStep}
	m.UART = &UART{m: m, TxPerMilli: cfg.TxPerMilli}
	m.TWI = &TWI{m: m, StopPolls: cfg.StopPolls}

	hw := core.Hardware{
		IRQ:      m.IRQ,
		Timer:    m.Timer,
		UART:     m.UART,
		TWI:      m.TWI,
		Watchdog: m.Watchdog,
		NV:       m.EEPROM,
		Spin:     m.spin,
	}
	for g := range m.Ports {
		m.Ports[g] = &Port{m: m, group: g}
		hw.Pins[g] = m.Ports[g]
	}

	opts := cfg.Options
	opts.Park = m.park
	m.RT = core.New(hw, opts)

	rt := m.RT
	m.IRQ.Attach(VecTimer, rt.Clock.OnTimerInterrupt)
	m.IRQ.Attach(VecUARTRx, rt.Serial.OnRxInterrupt)
	m.IRQ.Attach(VecUARTTx, rt.Serial.OnTxEmptyInterrupt)
	m.IRQ.Attach(VecTWI, rt.TWI.OnInterrupt)
	for g := 0; g < core.PinGroups; g++ {
		group := uint8(g)
		m.IRQ.Attach(VecPinGroup0+g, func() { rt.Pins.OnGroupInterrupt(group) })
	}
	return m
}

// park stops the device for good and unwinds to Guard.
func (m *Machine) park(code core.FatalCode) {
	m.IRQ.freeze()
	m.halted = true
	m.code = code
	glog.Warningf("sim: device halted with %s (%#02x)", code, uint8(code))
	panic(Halted{Code: code})
}

// Halted reports the fatal code once the device has halted.
func (m *Machine) Halted() (core.FatalCode, bool) {
	return m.code, m.halted
}

// Guard runs fn as device code. A halt inside fn is returned as Halted;
// once halted, fn is not run at all.
func (m *Machine) Guard(fn func()) (err error) {
	if m.halted {
		return Halted{Code: m.code}
	}
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(Halted)
			if !ok {
				panic(r)
			}
			err = h
		}
	}()
	fn()
	return nil
}

// Boot boots the runtime with board.
func (m *Machine) Boot(board core.Board) error {
	return m.Guard(func() { m.RT.Boot(board) })
}

// Step runs ms milliseconds: time advances one millisecond at a time, with
// one idle-loop pass after each.
func (m *Machine) Step(ms uint32) error {
	return m.Guard(func() {
		for i := uint32(0); i < ms; i++ {
			m.Timer.AdvanceMillis(1)
			m.RT.RunOnce()
		}
	})
}

// SetPin drives pin (0..23) high or low.
func (m *Machine) SetPin(pin uint8, high bool) error {
	if pin >= core.PinCount {
		return fmt.Errorf("pin %d: %w", pin, ErrNoPin)
	}
	return m.Guard(func() {
		m.Ports[pin/core.PinGroupSize].Set(pin%core.PinGroupSize, high)
	})
}

// Inject delivers data to the serial receiver.
func (m *Machine) Inject(data []byte) error {
	return m.Guard(func() { m.UART.Inject(data) })
}

// SpinIterations returns busy-wait iterations spent so far.
func (m *Machine) SpinIterations() uint64 {
	return m.spin.iters
}
