//go:build !tinygo

package core

// NopInterrupts is the host InterruptController. Host builds have no
// interrupt context, so there is nothing to mask.
type NopInterrupts struct{}

// Disable is a no-op on regular Go
func (NopInterrupts) Disable() IRQState {
	return 0
}

// Restore is a no-op on regular Go
func (NopInterrupts) Restore(state IRQState) {}

// Enable is a no-op on regular Go
func (NopInterrupts) Enable() {}

func defaultInterrupts() InterruptController {
	return NopInterrupts{}
}
