package core

// UARTDevice is one serial port's data and control registers.
type UARTDevice interface {
	// Configure programs the baud divisor (double-speed mode), enables the
	// receiver, the transmitter and the receive-complete interrupt.
	Configure(divisor uint16)

	// WriteData loads the transmit data register.
	WriteData(b byte)

	// ReadData reads the receive data register, which clears the
	// receive-complete and hardware overrun flags.
	ReadData() byte

	// TxReady reports whether the transmit data register is empty.
	TxReady() bool

	// SetTxInterrupt enables or disables the data-register-empty interrupt.
	SetTxInterrupt(enabled bool)
}
