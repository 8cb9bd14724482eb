//go:build avr

// Firmware for an ATmega328P walker board.
//
// Build with the runtime's own serial driver disabled, since this target
// owns USART0:
//
//	tinygo flash -target=arduino -serial=none ./targets/avr
package main

import (
	"device/avr"
	"machine"
	"runtime/interrupt"

	"critter/boards/walker"
	"critter/config"
	"critter/core"
)

var rt *core.Runtime

func init() {
	interrupt.New(avr.IRQ_TIMER1_OVF, func(interrupt.Interrupt) { rt.Clock.OnTimerInterrupt() })
	interrupt.New(avr.IRQ_USART_RX, func(interrupt.Interrupt) { rt.Serial.OnRxInterrupt() })
	interrupt.New(avr.IRQ_USART_UDRE, func(interrupt.Interrupt) { rt.Serial.OnTxEmptyInterrupt() })
	interrupt.New(avr.IRQ_TWI, func(interrupt.Interrupt) { rt.TWI.OnInterrupt() })
	interrupt.New(avr.IRQ_PCINT0, func(interrupt.Interrupt) { rt.Pins.OnGroupInterrupt(0) })
	interrupt.New(avr.IRQ_PCINT1, func(interrupt.Interrupt) { rt.Pins.OnGroupInterrupt(1) })
	interrupt.New(avr.IRQ_PCINT2, func(interrupt.Interrupt) { rt.Pins.OnGroupInterrupt(2) })
}

func main() {
	cfg := config.DefaultWalkerConfig()

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	hw := core.Hardware{
		IRQ:      core.CPUInterrupts{},
		Timer:    timer1{},
		UART:     usart0{},
		TWI:      twi{},
		Watchdog: newWatchdog(),
		NV:       eeprom{},
		Pins: [core.PinGroups]core.PinPort{
			pcPort{pin: avr.PINB, mask: avr.PCMSK0, enable: pcie0},
			pcPort{pin: avr.PINC, mask: avr.PCMSK1, enable: pcie1},
			pcPort{pin: avr.PIND, mask: avr.PCMSK2, enable: pcie2},
		},
	}
	rt = core.New(hw, cfg.RuntimeOptions())

	board := walker.New(cfg)
	board.LED = machine.LED.Set
	rt.Boot(board)

	for {
		rt.RunOnce()
	}
}
