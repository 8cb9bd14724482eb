package core

// IRQState is the interrupt-enable state saved by Disable.
type IRQState uintptr

// InterruptController is the CPU's global interrupt enable.
// Every critical section in the runtime is
//
//	s := irq.Disable()
//	defer irq.Restore(s)
//
// so the prior state is restored on every exit path, including nested sections
// entered from interrupt context.
type InterruptController interface {
	// Disable masks interrupts and returns the previous state.
	Disable() IRQState

	// Restore puts back a state returned by Disable.
	Restore(state IRQState)

	// Enable unmasks interrupts unconditionally. Only used once at boot.
	Enable()
}
