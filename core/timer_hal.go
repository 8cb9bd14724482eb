package core

// TimerPrescale is the divider between the CPU clock and the free-running
// hardware counter behind the Clock.
const TimerPrescale = 64

// TimerDevice is the free-running 16-bit hardware counter. The board calls
// Clock.OnTimerInterrupt from its overflow or compare vector, at least once
// per counter wrap.
type TimerDevice interface {
	// Start begins counting at cpuHz/TimerPrescale and enables the
	// overflow/compare interrupt.
	Start(cpuHz uint32)

	// Count returns the current raw counter value.
	Count() uint16
}

// BusyWait burns CPU cycles without touching any timer. Halt uses it because
// the Clock may be the thing that failed.
type BusyWait interface {
	// Spin executes n iterations of a loop of roughly four CPU cycles.
	Spin(n uint32)
}

var spinSink uint32

type loopSpinner struct{}

func (loopSpinner) Spin(n uint32) {
	for i := uint32(0); i < n; i++ {
		spinSink++
	}
}
