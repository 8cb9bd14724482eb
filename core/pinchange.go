package core

// PinListener receives level changes for one pin. Called in interrupt
// context with interrupts disabled, so it must be short.
type PinListener interface {
	PinChanged(pin uint8, level bool)
}

// PinListenerFunc adapts a plain function to PinListener.
type PinListenerFunc func(pin uint8, level bool)

// PinChanged calls f(pin, level).
func (f PinListenerFunc) PinChanged(pin uint8, level bool) {
	f(pin, level)
}

// NullListener ignores every change.
type NullListener struct{}

// PinChanged does nothing.
func (NullListener) PinChanged(uint8, bool) {}

// Pins fans pin-change interrupts out to per-pin listeners. Each group of
// eight pins shares one vector; the group ISR diffs the port against its
// last snapshot to find which pins moved.
type Pins struct {
	irq   InterruptController
	halt  *Halt
	ports [PinGroups]PinPort

	listeners [PinCount]PinListener // not owned
	masks     [PinGroups]uint8
	snapshot  [PinGroups]uint8
}

// OnPinChange registers listener for pin, replacing any previous one. A nil
// listener stops monitoring the pin.
func (p *Pins) OnPinChange(pin uint8, listener PinListener) {
	if pin >= PinCount {
		p.halt.Fatal(SubsysHardware | ReasonBadParam)
	}
	group := pin / PinGroupSize
	port := p.ports[group]
	if port == nil {
		p.halt.Fatal(SubsysHardware | ReasonBadCall)
	}
	bit := uint8(1) << (pin % PinGroupSize)

	s := p.irq.Disable()
	defer p.irq.Restore(s)

	p.listeners[pin] = listener
	wasEnabled := p.masks[group] != 0
	if listener != nil {
		p.masks[group] |= bit
	} else {
		p.masks[group] &^= bit
	}
	port.SetMask(p.masks[group])

	switch enabled := p.masks[group] != 0; {
	case enabled && !wasEnabled:
		// Changes while the group was off are not reported.
		p.snapshot[group] = port.Read()
		port.SetInterruptEnabled(true)
	case !enabled && wasEnabled:
		port.SetInterruptEnabled(false)
	case listener != nil:
		// Nor are changes on this pin while it was unmasked.
		p.snapshot[group] = p.snapshot[group]&^bit | port.Read()&bit
	}
}

// Listener returns the listener registered for pin.
func (p *Pins) Listener(pin uint8) PinListener {
	if pin >= PinCount {
		return nil
	}
	s := p.irq.Disable()
	defer p.irq.Restore(s)
	return p.listeners[pin]
}

// OnGroupInterrupt is the pin-change vector for group.
func (p *Pins) OnGroupInterrupt(group uint8) {
	if group >= PinGroups || p.ports[group] == nil {
		p.halt.Fatal(SubsysHardware | ReasonUnexpected)
	}

	s := p.irq.Disable()
	defer p.irq.Restore(s)

	cur := p.ports[group].Read()
	changed := cur ^ p.snapshot[group]
	p.snapshot[group] = cur

	base := group * PinGroupSize
	for bit := uint8(0); bit < PinGroupSize; bit++ {
		m := uint8(1) << bit
		if changed&m == 0 {
			continue
		}
		if l := p.listeners[base+bit]; l != nil {
			l.PinChanged(base+bit, cur&m != 0)
		}
	}
}
