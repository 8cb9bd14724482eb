package sim

import (
	"github.com/golang/glog"

	"critter/core"
)

// Vector numbers, lowest first in priority like the AVR vector table.
const (
	VecPinGroup0 = iota
	VecPinGroup1
	VecPinGroup2
	VecTimer
	VecUARTRx
	VecUARTTx
	VecTWI
	numVectors
)

// Interrupts is the simulated interrupt controller. Raised vectors stay
// pending until the global flag is set; handlers run one at a time with
// the flag cleared, as on a single-core MCU.
type Interrupts struct {
	enabled     bool
	pending     uint16
	handlers    [numVectors]func()
	dispatching bool
	frozen      bool // halted: nothing is delivered any more
	delivered   [numVectors]uint32
}

var _ core.InterruptController = (*Interrupts)(nil)

// Attach installs fn as the handler for vec.
func (ic *Interrupts) Attach(vec int, fn func()) {
	ic.handlers[vec] = fn
}

// Raise marks vec pending and delivers it at once if interrupts are on.
func (ic *Interrupts) Raise(vec int) {
	ic.pending |= 1 << vec
	ic.dispatch()
}

// Enabled reports the global interrupt flag.
func (ic *Interrupts) Enabled() bool {
	return ic.enabled
}

// Delivered returns how many times vec has run.
func (ic *Interrupts) Delivered(vec int) uint32 {
	return ic.delivered[vec]
}

func (ic *Interrupts) Disable() core.IRQState {
	var s core.IRQState
	if ic.enabled {
		s = 1
	}
	ic.enabled = false
	return s
}

func (ic *Interrupts) Restore(s core.IRQState) {
	if ic.frozen {
		return
	}
	ic.enabled = s != 0
	ic.dispatch()
}

func (ic *Interrupts) Enable() {
	if ic.frozen {
		return
	}
	ic.enabled = true
	ic.dispatch()
}

func (ic *Interrupts) freeze() {
	ic.frozen = true
	ic.enabled = false
}

func (ic *Interrupts) dispatch() {
	if !ic.enabled || ic.dispatching || ic.frozen {
		return
	}
	ic.dispatching = true
	defer func() { ic.dispatching = false }()

	for ic.enabled && ic.pending != 0 && !ic.frozen {
		vec := 0
		for ic.pending&(1<<vec) == 0 {
			vec++
		}
		ic.pending &^= 1 << vec

		h := ic.handlers[vec]
		if h == nil {
			glog.Warningf("sim: vector %d raised with no handler", vec)
			continue
		}
		ic.delivered[vec]++
		ic.enabled = false
		h()
		if !ic.frozen {
			ic.enabled = true
		}
	}
}
