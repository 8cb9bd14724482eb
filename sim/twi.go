package sim

import (
	"github.com/golang/glog"
	"tinygo.org/x/drivers/tester"

	"critter/core"
)

// Slave is a device on the simulated two-wire bus. A write transfer is
// delivered whole when the master sends stop; reads pull one byte at a
// time.
type Slave interface {
	Addr() uint8
	// Ack reports whether the device answers its address and data bytes.
	Ack() bool
	Receive(data []byte) error
	Transmit(p []byte) error
}

// TWI is the simulated bus controller. It reports the same status codes as
// the AVR TWI unit.
type TWI struct {
	m *Machine

	// StopPolls is how many Stopped calls report false after each stop.
	StopPolls int

	rateHz    uint32
	slaves    map[uint8]Slave
	status    core.TWIStatus
	addrPhase bool
	reading   bool
	target    Slave
	wbuf      []byte
	cur       byte
	stopLeft  int
	loseArb   bool
	stops     uint32
}

var _ core.TWIDevice = (*TWI)(nil)

// Attach puts s on the bus.
func (t *TWI) Attach(s Slave) {
	if t.slaves == nil {
		t.slaves = make(map[uint8]Slave)
	}
	t.slaves[s.Addr()] = s
}

// Detach removes the device at addr.
func (t *TWI) Detach(addr uint8) {
	delete(t.slaves, addr)
}

// LoseArbitration makes the next address byte lose arbitration.
func (t *TWI) LoseArbitration() {
	t.loseArb = true
}

// RateHz returns the configured bus rate.
func (t *TWI) RateHz() uint32 {
	return t.rateHz
}

// Stops returns how many stop conditions the master has sent.
func (t *TWI) Stops() uint32 {
	return t.stops
}

func (t *TWI) Configure(bitrateHz, cpuHz uint32) {
	t.rateHz = bitrateHz
}

func (t *TWI) Status() core.TWIStatus { return t.status }
func (t *TWI) Data() byte             { return t.cur }

func (t *TWI) Start() {
	t.addrPhase = true
	t.wbuf = t.wbuf[:0]
	t.raise(core.TWIStart)
}

func (t *TWI) Write(b byte) {
	if t.addrPhase {
		t.addrPhase = false
		t.reading = b&1 != 0
		addr := b >> 1
		if t.loseArb {
			t.loseArb = false
			t.target = nil
			t.raise(core.TWIArbLost)
			return
		}
		s := t.slaves[addr]
		ack := s != nil && s.Ack()
		if ack {
			t.target = s
		} else {
			t.target = nil
		}
		switch {
		case t.reading && ack:
			t.raise(core.TWIMRAddrAck)
		case t.reading:
			t.raise(core.TWIMRAddrNack)
		case ack:
			t.raise(core.TWIMTAddrAck)
		default:
			t.raise(core.TWIMTAddrNack)
		}
		return
	}

	if t.target == nil || t.reading {
		t.raise(core.TWIBusError)
		return
	}
	t.wbuf = append(t.wbuf, b)
	if t.target.Ack() {
		t.raise(core.TWIMTDataAck)
	} else {
		t.raise(core.TWIMTDataNack)
	}
}

func (t *TWI) Read(ack bool) {
	if t.target == nil || !t.reading {
		t.raise(core.TWIBusError)
		return
	}
	var one [1]byte
	if err := t.target.Transmit(one[:]); err != nil {
		glog.V(1).Infof("sim: twi read from %#x: %v", t.target.Addr(), err)
		one[0] = 0xFF
	}
	t.cur = one[0]
	if ack {
		t.raise(core.TWIMRDataAck)
	} else {
		t.raise(core.TWIMRDataNack)
	}
}

func (t *TWI) Stop() {
	t.stops++
	if t.target != nil && !t.reading && len(t.wbuf) > 0 {
		if err := t.target.Receive(t.wbuf); err != nil {
			glog.V(1).Infof("sim: twi write to %#x: %v", t.target.Addr(), err)
		}
	}
	t.wbuf = t.wbuf[:0]
	t.target = nil
	t.status = core.TWINoInfo
	t.stopLeft = t.StopPolls
}

func (t *TWI) Stopped() bool {
	if t.stopLeft > 0 {
		t.stopLeft--
		return false
	}
	return true
}

func (t *TWI) raise(st core.TWIStatus) {
	t.status = st
	t.m.IRQ.Raise(VecTWI)
}

// RegisterDevice is a slave with 8-bit registers and an auto-incrementing
// register pointer. The first byte of a write selects the register.
type RegisterDevice struct {
	Dev *tester.I2CDevice8
	ptr uint8
}

// NewRegisterDevice creates a register device at addr. f reports misuse,
// e.g. reading past the register file.
func NewRegisterDevice(f tester.Failer, addr uint8) *RegisterDevice {
	return &RegisterDevice{Dev: tester.NewI2CDevice8(f, addr)}
}

func (d *RegisterDevice) Addr() uint8 { return d.Dev.Addr() }
func (d *RegisterDevice) Ack() bool   { return d.Dev.Err == nil }

func (d *RegisterDevice) Receive(data []byte) error {
	d.ptr = data[0]
	if len(data) == 1 {
		return nil
	}
	if err := d.Dev.Tx(data, nil); err != nil {
		return err
	}
	d.ptr += uint8(len(data) - 1)
	return nil
}

func (d *RegisterDevice) Transmit(p []byte) error {
	if err := d.Dev.Tx([]byte{d.ptr}, p); err != nil {
		return err
	}
	d.ptr += uint8(len(p))
	return nil
}

// LogFailer reports register misuse through glog instead of failing a test.
type LogFailer struct{}

func (LogFailer) Fatalf(f string, a ...interface{}) {
	glog.Errorf("sim: "+f, a...)
}
