package sim

import "critter/core"

// Port is one simulated 8-pin port with its pin-change interrupt.
type Port struct {
	m     *Machine
	group int

	level   uint8
	mask    uint8
	enabled bool
}

var _ core.PinPort = (*Port)(nil)

func (p *Port) Read() uint8                      { return p.level }
func (p *Port) SetMask(mask uint8)               { p.mask = mask }
func (p *Port) SetInterruptEnabled(enabled bool) { p.enabled = enabled }

// Mask returns the pin-change mask register.
func (p *Port) Mask() uint8 {
	return p.mask
}

// InterruptEnabled reports whether the group interrupt is on.
func (p *Port) InterruptEnabled() bool {
	return p.enabled
}

// Set drives one pin of the port.
func (p *Port) Set(bit uint8, high bool) {
	m := uint8(1) << bit
	prev := p.level
	if high {
		p.level |= m
	} else {
		p.level &^= m
	}
	if prev != p.level && p.mask&m != 0 && p.enabled {
		p.m.IRQ.Raise(VecPinGroup0 + p.group)
	}
}
