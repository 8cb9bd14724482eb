package core

// fakeTWI answers the bus controller the way an AVR TWI unit reports
// status, with a single scripted slave.
type fakeTWI struct {
	auto    bool // run the vector from fakeIRQ.onEnable
	pending bool
	status  TWIStatus

	rateHz uint32

	addrPhase bool
	slave     uint8
	reading   bool
	cur       byte

	present   map[uint8]bool
	nackData  bool
	arbLost   bool
	readData  []byte
	written   []byte
	stopPolls int
	stopLeft  int
	stops     int
}

func newFakeTWI() *fakeTWI {
	return &fakeTWI{auto: true, present: map[uint8]bool{}}
}

func (f *fakeTWI) Configure(bitrateHz, cpuHz uint32) { f.rateHz = bitrateHz }
func (f *fakeTWI) Status() TWIStatus                 { return f.status }
func (f *fakeTWI) Data() byte                        { return f.cur }

func (f *fakeTWI) Start() {
	f.addrPhase = true
	f.status = TWIStart
	f.pending = true
}

func (f *fakeTWI) Write(b byte) {
	f.pending = true
	if f.addrPhase {
		f.addrPhase = false
		f.slave = b >> 1
		f.reading = b&1 != 0
		switch {
		case f.arbLost:
			f.status = TWIArbLost
		case !f.present[f.slave] && f.reading:
			f.status = TWIMRAddrNack
		case !f.present[f.slave]:
			f.status = TWIMTAddrNack
		case f.reading:
			f.status = TWIMRAddrAck
		default:
			f.status = TWIMTAddrAck
		}
		return
	}
	f.written = append(f.written, b)
	if f.nackData {
		f.status = TWIMTDataNack
	} else {
		f.status = TWIMTDataAck
	}
}

func (f *fakeTWI) Read(ack bool) {
	f.pending = true
	f.cur = 0xFF
	if len(f.readData) > 0 {
		f.cur = f.readData[0]
		f.readData = f.readData[1:]
	}
	if ack {
		f.status = TWIMRDataAck
	} else {
		f.status = TWIMRDataNack
	}
}

func (f *fakeTWI) Stop() {
	f.stops++
	f.pending = false
	f.stopLeft = f.stopPolls
	f.status = TWINoInfo
}

func (f *fakeTWI) Stopped() bool {
	if f.stopLeft > 0 {
		f.stopLeft--
		return false
	}
	return true
}

// recorder collects TWICallbacks.
type recorder struct {
	received []byte
	rxAddr   uint8
	sent     []uint8
	naks     []uint8
	onSent   func(addr uint8)
}

func (r *recorder) DataReceived(addr uint8, data []byte) {
	r.rxAddr = addr
	r.received = append([]byte(nil), data...)
}

func (r *recorder) TransmitComplete(addr uint8) {
	r.sent = append(r.sent, addr)
	if r.onSent != nil {
		r.onSent(addr)
	}
}

func (r *recorder) Nak(addr uint8) { r.naks = append(r.naks, addr) }

func (r *recorder) calls() int { return len(r.sent) + len(r.naks) + boolInt(r.received != nil) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
