package core

// TWIStatus is the two-wire status register value (prescaler bits masked),
// using the AVR TWSR encoding.
type TWIStatus uint8

// Master status codes.
const (
	TWIBusError   TWIStatus = 0x00
	TWIStart      TWIStatus = 0x08
	TWIRepStart   TWIStatus = 0x10
	TWIMTAddrAck  TWIStatus = 0x18
	TWIMTAddrNack TWIStatus = 0x20
	TWIMTDataAck  TWIStatus = 0x28
	TWIMTDataNack TWIStatus = 0x30
	TWIArbLost    TWIStatus = 0x38
	TWIMRAddrAck  TWIStatus = 0x40
	TWIMRAddrNack TWIStatus = 0x48
	TWIMRDataAck  TWIStatus = 0x50
	TWIMRDataNack TWIStatus = 0x58
	TWINoInfo     TWIStatus = 0xF8
)

// TWIDevice is the two-wire bus peripheral. Every call that advances the
// bus (Start, Write, Read) finishes by raising the bus interrupt, which the
// board routes to TWI.OnInterrupt.
type TWIDevice interface {
	// Configure sets the bit rate and enables the peripheral.
	Configure(bitrateHz, cpuHz uint32)

	// Status returns the current status code.
	Status() TWIStatus

	// Start transmits a (repeated) START condition.
	Start()

	// Write transmits an address or data byte.
	Write(b byte)

	// Read receives the next byte, answering it with ACK or NACK.
	Read(ack bool)

	// Data returns the last received byte.
	Data() byte

	// Stop transmits a STOP condition. No interrupt follows.
	Stop()

	// Stopped reports whether the STOP condition has completed.
	Stopped() bool
}

// TWIBitRateDivisor returns the bit-rate register value for bitrateHz with a
// prescaler of 1: SCL = cpuHz / (16 + 2*div). It reports false when the rate
// is above cpuHz/16 or needs a divisor over 255; div is then clamped.
func TWIBitRateDivisor(bitrateHz, cpuHz uint32) (uint8, bool) {
	if bitrateHz == 0 || cpuHz/bitrateHz < 16 {
		return 0, false
	}
	div := (cpuHz/bitrateHz - 16) / 2
	if div > 0xFF {
		return 0xFF, false
	}
	return uint8(div), true
}
