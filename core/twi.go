package core

import (
	"errors"

	"tinygo.org/x/drivers"
)

// TWIBufferSize is the largest single transfer.
const TWIBufferSize = 16

// TWIDefaultRateHz is used when no bus rate is configured.
const TWIDefaultRateHz = 100000

// TWITxTimeoutMillis bounds one blocking transfer.
const TWITxTimeoutMillis = 50

var (
	ErrNak             = errors.New("twi: no acknowledge")
	ErrArbitrationLost = errors.New("twi: arbitration lost")
)

var _ drivers.I2C = (*TWI)(nil)

// TWICallbacks receives the outcome of asynchronous transfers. Exactly one
// method runs per transfer, from the scheduler with the bus already idle,
// so a callback may start the next transfer.
type TWICallbacks interface {
	// DataReceived delivers a completed read. data is only valid during
	// the call.
	DataReceived(addr uint8, data []byte)
	TransmitComplete(addr uint8)
	// Nak reports a refused address or data byte, or a lost arbitration.
	Nak(addr uint8)
}

type twiState uint8

const (
	twiIdle twiState = iota
	twiStarting
	twiAddressPhase
	twiDataPhase
	twiStopping
)

type twiResult uint8

const (
	twiOK twiResult = iota
	twiNak
	twiArbLost
)

// TWI is an interrupt-driven two-wire bus master. The interrupt handler
// walks the transfer byte by byte from the status register; completion is
// reported through the scheduler once the stop condition is on the wire.
type TWI struct {
	irq   InterruptController
	dev   TWIDevice
	halt  *Halt
	sched *Scheduler
	clock *Clock
	trace *Trace

	rateHz  uint32
	started bool
	cb      TWICallbacks

	state  twiState
	write  bool
	sync   bool // blocking transfer: no completion task
	result twiResult
	addr   uint8
	buf    [TWIBufferSize]byte
	n      uint8
	idx    uint8

	delivered [TWIBufferSize]byte
}

// StartMaster configures the bus controller and installs the callbacks. It
// may only be called once.
func (t *TWI) StartMaster(cb TWICallbacks) {
	if t.started {
		t.halt.Fatal(SubsysTWI | ReasonReuse)
	}
	rate := t.rateHz
	if rate == 0 {
		rate = TWIDefaultRateHz
	}

	s := t.irq.Disable()
	defer t.irq.Restore(s)

	t.dev.Configure(rate, t.clock.CPUHz())
	t.cb = cb
	t.state = twiIdle
	t.started = true
}

// IsBusy reports whether a transfer is in flight or still waiting for its
// callback.
func (t *TWI) IsBusy() bool {
	s := t.irq.Disable()
	defer t.irq.Restore(s)
	return t.state != twiIdle
}

// SendTo starts writing data to the device at addr.
func (t *TWI) SendTo(addr uint8, data []byte) {
	if len(data) > TWIBufferSize {
		t.halt.Fatal(SubsysTWI | ReasonTooBig)
	}
	t.begin(addr, true, false, data, uint8(len(data)))
}

// RequestFrom starts reading n bytes from the device at addr.
func (t *TWI) RequestFrom(addr uint8, n int) {
	if n <= 0 || n > TWIBufferSize {
		t.halt.Fatal(SubsysTWI | ReasonTooBig)
	}
	t.begin(addr, false, false, nil, uint8(n))
}

func (t *TWI) begin(addr uint8, write, sync bool, data []byte, n uint8) {
	if !t.started {
		t.halt.Fatal(SubsysTWI | ReasonBadCall)
	}
	if addr > 0x7F {
		t.halt.Fatal(SubsysTWI | ReasonBadParam)
	}

	s := t.irq.Disable()
	defer t.irq.Restore(s)

	if t.state != twiIdle {
		t.halt.Fatal(SubsysTWI | ReasonBusy)
	}
	t.addr = addr
	t.write = write
	t.sync = sync
	t.result = twiOK
	t.n = n
	t.idx = 0
	copy(t.buf[:], data)
	t.state = twiStarting
	t.dev.Start()
}

// OnInterrupt is the bus controller vector.
func (t *TWI) OnInterrupt() {
	s := t.irq.Disable()
	defer t.irq.Restore(s)

	status := t.dev.Status()
	switch status {
	case TWIStart, TWIRepStart:
		if t.state != twiStarting {
			break
		}
		t.state = twiAddressPhase
		sla := t.addr << 1
		if !t.write {
			sla |= 1
		}
		t.dev.Write(sla)
		return

	case TWIMTAddrAck, TWIMTDataAck:
		if !t.write || !t.inFlight() {
			break
		}
		if t.idx < t.n {
			t.state = twiDataPhase
			b := t.buf[t.idx]
			t.idx++
			t.dev.Write(b)
			return
		}
		t.finish(twiOK)
		return

	case TWIMRAddrAck:
		if t.write || t.state != twiAddressPhase {
			break
		}
		t.state = twiDataPhase
		t.dev.Read(t.n > 1)
		return

	case TWIMRDataAck:
		if t.write || t.state != twiDataPhase || t.idx >= t.n {
			break
		}
		t.buf[t.idx] = t.dev.Data()
		t.idx++
		t.dev.Read(t.n-t.idx > 1)
		return

	case TWIMRDataNack:
		if t.write || t.state != twiDataPhase || t.idx >= t.n {
			break
		}
		t.buf[t.idx] = t.dev.Data()
		t.idx++
		t.finish(twiOK)
		return

	case TWIMTAddrNack, TWIMTDataNack, TWIMRAddrNack:
		if !t.inFlight() {
			break
		}
		t.finish(twiNak)
		return

	case TWIArbLost:
		if !t.inFlight() {
			break
		}
		t.finish(twiArbLost)
		return
	}

	t.halt.Fatal(SubsysTWI | ReasonUnexpected)
}

func (t *TWI) inFlight() bool {
	return t.state == twiAddressPhase || t.state == twiDataPhase
}

// finish must be called with interrupts disabled
func (t *TWI) finish(res twiResult) {
	t.dev.Stop()
	t.state = twiStopping
	t.result = res
	t.trace.Record(EvtTWIDone, t.addr, t.clock.millis, uint16(res)<<8|uint16(t.idx))
	if !t.sync {
		t.sched.After(0, t.complete, nil)
	}
}

// complete runs from the scheduler until the stop condition has gone out.
func (t *TWI) complete(any) {
	s := t.irq.Disable()
	if !t.dev.Stopped() {
		t.irq.Restore(s)
		t.sched.After(0, t.complete, nil)
		return
	}
	addr, write, res := t.addr, t.write, t.result
	n := copy(t.delivered[:], t.buf[:t.idx])
	t.state = twiIdle
	t.irq.Restore(s)

	if t.cb == nil {
		return
	}
	switch {
	case res != twiOK:
		t.cb.Nak(addr)
	case write:
		t.cb.TransmitComplete(addr)
	default:
		t.cb.DataReceived(addr, t.delivered[:n])
	}
}

// Tx performs a blocking write-then-read with the device at addr, as
// expected by tinygo drivers. The write and the read are separate
// transfers. Only for normal context with interrupts enabled.
func (t *TWI) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		t.halt.Fatal(SubsysTWI | ReasonBadParam)
	}
	if len(w) > TWIBufferSize || len(r) > TWIBufferSize {
		t.halt.Fatal(SubsysTWI | ReasonTooBig)
	}
	if len(w) > 0 {
		t.begin(uint8(addr), true, true, w, uint8(len(w)))
		if err := t.wait(nil); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		t.begin(uint8(addr), false, true, nil, uint8(len(r)))
		if err := t.wait(r); err != nil {
			return err
		}
	}
	return nil
}

// wait spins until the current blocking transfer has stopped.
func (t *TWI) wait(r []byte) error {
	deadline := t.clock.ReadMillis() + TWITxTimeoutMillis
	for {
		s := t.irq.Disable()
		if t.state == twiStopping && t.dev.Stopped() {
			res := t.result
			copy(r, t.buf[:t.idx])
			t.state = twiIdle
			t.irq.Restore(s)
			switch res {
			case twiNak:
				return ErrNak
			case twiArbLost:
				return ErrArbitrationLost
			}
			return nil
		}
		t.irq.Restore(s)

		if Reached(t.clock.ReadMillis(), deadline) {
			t.halt.Fatal(SubsysTWI | ReasonTimeout)
		}
	}
}
