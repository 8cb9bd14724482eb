//go:build avr

package main

import (
	"device/avr"
	"runtime/volatile"

	"critter/core"
)

// Register bits
const (
	u2x0   = 1 << 1 // UCSR0A
	udre0  = 1 << 5
	rxcie0 = 1 << 7 // UCSR0B
	udrie0 = 1 << 5
	rxen0  = 1 << 4
	txen0  = 1 << 3
	ucsz8  = 3 << 1 // UCSR0C: 8 data bits

	twint = 1 << 7 // TWCR
	twea  = 1 << 6
	twsta = 1 << 5
	twsto = 1 << 4
	twen  = 1 << 2
	twie  = 1 << 0

	cs1Div64 = 3 << 0 // TCCR1B
	toie1    = 1 << 0 // TIMSK1

	pcie0 = 1 << 0 // PCICR
	pcie1 = 1 << 1
	pcie2 = 1 << 2

	eere  = 1 << 0 // EECR
	eepe  = 1 << 1
	eempe = 1 << 2

	wde  = 1 << 3 // WDTCSR
	wdce = 1 << 4
	wdp3 = 1 << 5
)

// timer1 runs Timer1 free at clk/64 with the overflow interrupt on.
type timer1 struct{}

func (timer1) Start(cpuHz uint32) {
	avr.TCCR1A.Set(0)
	avr.TCNT1H.Set(0)
	avr.TCNT1L.Set(0)
	avr.TCCR1B.Set(cs1Div64)
	avr.TIMSK1.Set(toie1)
}

// Count reads the low byte first, which latches the high byte.
func (timer1) Count() uint16 {
	lo := avr.TCNT1L.Get()
	hi := avr.TCNT1H.Get()
	return uint16(hi)<<8 | uint16(lo)
}

// usart0 is the serial port in double-speed mode, 8N1.
type usart0 struct{}

func (usart0) Configure(divisor uint16) {
	avr.UCSR0A.Set(u2x0)
	avr.UBRR0H.Set(uint8(divisor >> 8))
	avr.UBRR0L.Set(uint8(divisor))
	avr.UCSR0C.Set(ucsz8)
	avr.UCSR0B.Set(rxen0 | txen0 | rxcie0)
}

func (usart0) WriteData(b byte) { avr.UDR0.Set(b) }
func (usart0) ReadData() byte   { return avr.UDR0.Get() }
func (usart0) TxReady() bool    { return avr.UCSR0A.HasBits(udre0) }

func (usart0) SetTxInterrupt(enabled bool) {
	if enabled {
		avr.UCSR0B.SetBits(udrie0)
	} else {
		avr.UCSR0B.ClearBits(udrie0)
	}
}

// twi is the hardware two-wire unit with its interrupt enabled.
type twi struct{}

func (twi) Configure(bitrateHz, cpuHz uint32) {
	avr.TWSR.Set(0)                                    // prescaler 1
	div, _ := core.TWIBitRateDivisor(bitrateHz, cpuHz) // clamped if out of range
	avr.TWBR.Set(div)
	avr.TWCR.Set(twen)
}

func (twi) Status() core.TWIStatus { return core.TWIStatus(avr.TWSR.Get() & 0xF8) }
func (twi) Start()                 { avr.TWCR.Set(twint | twsta | twen | twie) }
func (twi) Data() byte             { return avr.TWDR.Get() }
func (twi) Stop()                  { avr.TWCR.Set(twint | twsto | twen) }
func (twi) Stopped() bool          { return !avr.TWCR.HasBits(twsto) }

func (twi) Write(b byte) {
	avr.TWDR.Set(b)
	avr.TWCR.Set(twint | twen | twie)
}

func (twi) Read(ack bool) {
	cr := uint8(twint | twen | twie)
	if ack {
		cr |= twea
	}
	avr.TWCR.Set(cr)
}

// pcPort is one GPIO port with its pin-change group.
type pcPort struct {
	pin    *volatile.Register8
	mask   *volatile.Register8
	enable uint8
}

func (p pcPort) Read() uint8        { return p.pin.Get() }
func (p pcPort) SetMask(mask uint8) { p.mask.Set(mask) }

func (p pcPort) SetInterruptEnabled(enabled bool) {
	if enabled {
		avr.PCIFR.Set(p.enable) // drop a stale flag
		avr.PCICR.SetBits(p.enable)
	} else {
		avr.PCICR.ClearBits(p.enable)
	}
}

// watchdog latches the reset cause at power-up, before anything clears it.
type watchdog struct {
	cause uint8
}

func newWatchdog() *watchdog {
	w := &watchdog{cause: avr.MCUSR.Get() & 0x0F}
	avr.MCUSR.Set(0)
	return w
}

// Arm selects the shortest prescale of at least timeoutMillis, up to 8 s.
func (w *watchdog) Arm(timeoutMillis uint16) {
	var wdp uint8
	for period := uint32(16); period < uint32(timeoutMillis) && wdp < 9; period <<= 1 {
		wdp++
	}
	bits := wdp & 0x07
	if wdp&0x08 != 0 {
		bits |= wdp3
	}
	avr.Asm("wdr")
	avr.WDTCSR.Set(wdce | wde)
	avr.WDTCSR.Set(wde | bits)
}

func (w *watchdog) Reset()            { avr.Asm("wdr") }
func (w *watchdog) ResetCause() uint8 { return w.cause }

// eeprom is the on-chip EEPROM. Writes wait for the previous one.
type eeprom struct{}

func (eeprom) ReadByte(addr uint16) byte {
	for avr.EECR.HasBits(eepe) {
	}
	avr.EEARH.Set(uint8(addr >> 8))
	avr.EEARL.Set(uint8(addr))
	avr.EECR.SetBits(eere)
	return avr.EEDR.Get()
}

func (eeprom) WriteByte(addr uint16, b byte) {
	for avr.EECR.HasBits(eepe) {
	}
	avr.EEARH.Set(uint8(addr >> 8))
	avr.EEARL.Set(uint8(addr))
	avr.EEDR.Set(b)

	s := core.CPUInterrupts{}.Disable()
	avr.EECR.SetBits(eempe)
	avr.EECR.SetBits(eepe)
	core.CPUInterrupts{}.Restore(s)
}
