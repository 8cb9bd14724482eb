package sim

import "critter/core"

// EEPROMSize matches an ATmega328P.
const EEPROMSize = 1024

// EEPROM is the non-volatile store. Writes are counted so tests can check
// wear.
type EEPROM struct {
	mem    [EEPROMSize]byte
	writes uint32
}

var _ core.NVStore = (*EEPROM)(nil)

func (e *EEPROM) ReadByte(addr uint16) byte {
	return e.mem[addr%EEPROMSize]
}

func (e *EEPROM) WriteByte(addr uint16, b byte) {
	e.mem[addr%EEPROMSize] = b
	e.writes++
}

// Writes returns the number of byte writes so far.
func (e *EEPROM) Writes() uint32 {
	return e.writes
}

// Watchdog records arming and acknowledgements.
type Watchdog struct {
	Cause uint8 // reported as the reset cause

	timeout uint16
	resets  uint32
}

var _ core.Watchdog = (*Watchdog)(nil)

func (w *Watchdog) Arm(timeoutMillis uint16) { w.timeout = timeoutMillis }
func (w *Watchdog) Reset()                   { w.resets++ }
func (w *Watchdog) ResetCause() uint8        { return w.Cause }

// Timeout returns the armed timeout.
func (w *Watchdog) Timeout() uint16 {
	return w.timeout
}

// Resets returns how often the watchdog was fed.
func (w *Watchdog) Resets() uint32 {
	return w.resets
}

// spinner counts busy-wait iterations instead of burning host CPU.
type spinner struct {
	iters uint64
}

func (s *spinner) Spin(n uint32) {
	s.iters += uint64(n)
}
