package core

import (
	"testing"

	"critter/protocol"

	"github.com/stretchr/testify/require"
)

func TestBaudDivisor(t *testing.T) {
	tests := []struct {
		baud, cpuHz uint32
		div         uint16
		actual      uint32
		ok          bool
	}{
		{115200, 16000000, 16, 115200, true},
		{9600, 16000000, 207, 9600, true},
		{1000000, 16000000, 1, 1000000, true},
		{1000000, 8000000, 0, 1000000, true},
		{57000, 16000000, 34, 57600, true},
		{115200, 8000000, 0, 0, false}, // 3.5 % off
		{100000, 16000000, 0, 0, false},
		{0, 16000000, 0, 0, false},
	}
	for _, tt := range tests {
		div, actual, ok := BaudDivisor(tt.baud, tt.cpuHz)
		require.Equal(t, tt.ok, ok, "baud %d @ %d", tt.baud, tt.cpuHz)
		if ok {
			require.Equal(t, tt.div, div, "baud %d @ %d", tt.baud, tt.cpuHz)
			require.Equal(t, tt.actual, actual)
		}
	}
}

func TestUARTConfigure(t *testing.T) {
	r := newRig(t, 16000000).boot()
	require.False(t, r.rt.Serial.Configured())

	r.rt.Serial.Configure(9600, 16000000)
	require.True(t, r.rt.Serial.Configured())
	require.Equal(t, uint16(207), r.uart.divisor)
	require.Equal(t, uint32(9600), r.rt.Serial.Baud())

	requireFatal(t, SubsysSerial|ReasonBadParam, func() {
		r.rt.Serial.Configure(31250, 16000000)
	})
}

func TestUARTSendBeforeConfigure(t *testing.T) {
	r := newRig(t, testCPUHz).boot()
	requireFatal(t, SubsysSerial|ReasonBadCall, func() {
		r.rt.Serial.Send([]byte("x"))
	})
}

func TestUARTSendPartial(t *testing.T) {
	r := newRig(t, 16000000).boot()
	u := &r.rt.Serial
	u.Configure(115200, 16000000)

	data := make([]byte, 50)
	for i := range data {
		data[i] = byte(i)
	}
	n := u.Send(data)
	require.Equal(t, protocol.RingSize, n)
	require.True(t, r.uart.txOn)
	require.Equal(t, 0, u.Send(data[n:]))

	for i := 0; i < 40; i++ {
		u.OnTxEmptyInterrupt()
	}
	require.Equal(t, data[:n], r.uart.out)
	require.False(t, r.uart.txOn, "interrupt disabled once drained")
}

func TestUARTSendAllDrains(t *testing.T) {
	r := newRig(t, testCPUHz).boot()
	u := &r.rt.Serial
	u.Configure(115200, testCPUHz)

	// Drain one byte per timer read so SendAll's sleep makes progress.
	r.timer.step = 16
	prev := r.irq.onEnable
	r.irq.onEnable = func() {
		prev()
		if r.uart.txOn {
			u.OnTxEmptyInterrupt()
		}
	}

	msg := make([]byte, 100)
	for i := range msg {
		msg[i] = byte('a' + i%26)
	}
	u.SendAll(msg)
	for r.uart.txOn {
		u.OnTxEmptyInterrupt()
	}
	require.Equal(t, msg, r.uart.out)
}

func TestUARTReceiveOverflowDropsNewest(t *testing.T) {
	r := newRig(t, testCPUHz).boot()
	u := &r.rt.Serial
	u.Configure(115200, testCPUHz)

	hooks := 0
	u.SetOverrunHook(func() { hooks++ })

	for i := 0; i < protocol.RingSize+3; i++ {
		r.uart.rxReg = byte(i)
		u.OnRxInterrupt()
	}
	require.Equal(t, protocol.RingSize, u.Available())
	require.Equal(t, uint16(3), u.Overruns())
	require.Equal(t, 3, hooks)

	buf := make([]byte, 64)
	n := u.Read(buf)
	require.Equal(t, protocol.RingSize, n)
	for i := 0; i < n; i++ {
		require.Equal(t, byte(i), buf[i], "order kept, newest dropped")
	}

	r.uart.rxReg = 'k'
	u.OnRxInterrupt()
	b, ok := u.Getch()
	require.True(t, ok)
	require.Equal(t, byte('k'), b)
	_, ok = u.Getch()
	require.False(t, ok)
}

func TestUARTForceOutWaitsForRegister(t *testing.T) {
	r := newRig(t, testCPUHz).boot()
	r.uart.notReady = 5
	r.rt.Serial.ForceOut(0x42)
	require.Equal(t, []byte{0x42}, r.uart.out)
	require.Equal(t, 0, r.uart.notReady)
}
