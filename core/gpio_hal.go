package core

// PinGroupSize is the number of pins behind one pin-change interrupt.
const PinGroupSize = 8

// PinGroups is the number of pin-change groups.
const PinGroups = 3

// PinCount is the number of pins the fan-out can serve.
const PinCount = PinGroups * PinGroupSize

// PinPort is one 8-pin GPIO port with its pin-change interrupt.
// Platform-specific implementations handle actual hardware control.
type PinPort interface {
	// Read samples the input levels of all eight pins.
	Read() uint8

	// SetMask writes the pin-change mask register; a set bit lets that pin
	// raise the group interrupt.
	SetMask(mask uint8)

	// SetInterruptEnabled enables or disables the group interrupt.
	SetInterruptEnabled(enabled bool)
}
