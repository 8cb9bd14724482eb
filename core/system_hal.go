package core

// Reset cause flags reported by Watchdog.ResetCause.
const (
	ResetPowerOn  = 1 << 0
	ResetExternal = 1 << 1
	ResetBrownOut = 1 << 2
	ResetWatchdog = 1 << 3
)

// Watchdog resets the device unless it is acknowledged in time.
type Watchdog interface {
	// Arm starts the watchdog with the given timeout.
	Arm(timeoutMillis uint16)

	// Reset acknowledges the watchdog.
	Reset()

	// ResetCause returns the Reset* flags of the last reset.
	ResetCause() uint8
}

// NVStore is byte-addressed non-volatile storage (EEPROM).
type NVStore interface {
	ReadByte(addr uint16) byte
	WriteByte(addr uint16, b byte)
}

// Non-volatile layout. Unversioned; only read for post-mortem diagnosis.
const (
	NVLastFatal      = 0
	NVResetFlags     = 1
	NVPrevResetFlags = 2
	NVBootCount      = 3 // little-endian uint16 at 3..4
	NVReservedEnd    = 5
)

type nopWatchdog struct{}

func (nopWatchdog) Arm(uint16)        {}
func (nopWatchdog) Reset()            {}
func (nopWatchdog) ResetCause() uint8 { return ResetPowerOn }
