//go:build tinygo

package core

import "runtime/interrupt"

// CPUInterrupts drives the global interrupt flag through the TinyGo runtime.
type CPUInterrupts struct{}

// Disable disables interrupts and returns the previous state
func (CPUInterrupts) Disable() IRQState {
	return IRQState(interrupt.Disable())
}

// Restore restores the interrupt state
func (CPUInterrupts) Restore(state IRQState) {
	interrupt.Restore(interrupt.State(state))
}

// Enable is a no-op: the TinyGo runtime enables interrupts before main runs.
func (CPUInterrupts) Enable() {}

func defaultInterrupts() InterruptController {
	return CPUInterrupts{}
}
