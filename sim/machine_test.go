package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/mpu6050"

	"critter/core"
	"critter/protocol"
)

func newMachine(t *testing.T, cfg Config) *Machine {
	t.Helper()
	if cfg.Options.CPUHz == 0 {
		cfg.Options.CPUHz = 16000000
	}
	return New(cfg)
}

func TestMachineTimingMatchesClock(t *testing.T) {
	m := newMachine(t, Config{})
	var fired []uint16
	require.NoError(t, m.Boot(core.BoardFunc(func(rt *core.Runtime) {
		var tick core.TaskFunc
		tick = func(any) {
			fired = append(fired, rt.Clock.ReadMillis())
			rt.Sched.After(100, tick, nil)
		}
		rt.Sched.After(100, tick, nil)
	})))

	require.NoError(t, m.Step(1000))
	require.Len(t, fired, 10)
	for i := 1; i < len(fired); i++ {
		gap := fired[i] - fired[i-1]
		require.GreaterOrEqual(t, gap, uint16(100), "tick %d", i)
		require.LessOrEqual(t, gap, uint16(102), "tick %d", i)
	}
	require.NotZero(t, m.IRQ.Delivered(VecTimer))
	require.NotZero(t, m.Watchdog.Resets())
}

type echoBoard struct{ rt *core.Runtime }

func (b *echoBoard) Setup(rt *core.Runtime) {
	b.rt = rt
	rt.Serial.Configure(115200, rt.Clock.CPUHz())
}

func (b *echoBoard) Poll() {
	for {
		c, ok := b.rt.Serial.Getch()
		if !ok {
			return
		}
		b.rt.Serial.Send([]byte{c})
	}
}

func TestMachineSerialEcho(t *testing.T) {
	m := newMachine(t, Config{})
	require.NoError(t, m.Boot(&echoBoard{}))
	require.Equal(t, uint16(16), m.UART.Divisor())

	require.NoError(t, m.Inject([]byte("hello")))
	require.NoError(t, m.Step(2))
	require.Equal(t, "hello", string(m.UART.TakeOutput()))
}

func TestMachineReceiveOverflow(t *testing.T) {
	m := newMachine(t, Config{})
	require.NoError(t, m.Boot(core.BoardFunc(func(rt *core.Runtime) {
		rt.Serial.Configure(9600, rt.Clock.CPUHz())
	})))

	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, m.Inject(data))
	require.Equal(t, protocol.RingSize, m.RT.Serial.Available())
	require.Equal(t, uint16(8), m.RT.Serial.Overruns())

	buf := make([]byte, 64)
	n := m.RT.Serial.Read(buf)
	require.Equal(t, data[:protocol.RingSize], buf[:n])
}

func TestMachinePacedSendAll(t *testing.T) {
	m := newMachine(t, Config{TxPerMilli: 3})
	msg := []byte("the quick brown fox jumps over the lazy dog, twice over")
	require.NoError(t, m.Boot(core.BoardFunc(func(rt *core.Runtime) {
		rt.Serial.Configure(38400, rt.Clock.CPUHz())
		rt.Serial.SendAll(msg)
	})))
	require.NoError(t, m.Step(40))
	require.Equal(t, msg, m.UART.Output())
	require.Greater(t, m.Timer.Elapsed(), uint64(len(msg)-protocol.RingSize)/3)
}

func TestMachinePinChange(t *testing.T) {
	m := newMachine(t, Config{})
	var levels []bool
	require.NoError(t, m.Boot(core.BoardFunc(func(rt *core.Runtime) {
		rt.Pins.OnPinChange(13, core.PinListenerFunc(func(pin uint8, level bool) {
			require.Equal(t, uint8(13), pin)
			levels = append(levels, level)
		}))
	})))
	require.Equal(t, uint8(1<<5), m.Ports[1].Mask())
	require.True(t, m.Ports[1].InterruptEnabled())

	require.NoError(t, m.SetPin(13, true))
	require.NoError(t, m.SetPin(12, true))
	require.NoError(t, m.SetPin(13, false))
	require.Equal(t, []bool{true, false}, levels)

	require.ErrorIs(t, m.SetPin(24, true), ErrNoPin)
}

func TestMachineIMUOverTx(t *testing.T) {
	m := newMachine(t, Config{StopPolls: 2})
	imu := NewIMU(t)
	imu.SetAccel(0, -8192, 16384)
	m.TWI.Attach(imu)

	var connected bool
	var x, y, z int32
	require.NoError(t, m.Boot(core.BoardFunc(func(rt *core.Runtime) {
		rt.TWI.StartMaster(nil)
		dev := mpu6050.New(&rt.TWI)
		connected = dev.Connected()
		require.NoError(t, dev.Configure())
		x, y, z = dev.ReadAcceleration()
	})))

	require.True(t, connected)
	require.True(t, imu.Awake())
	require.Equal(t, int32(0), x)
	require.Equal(t, int32(-500000), y)
	require.Equal(t, int32(1000000), z)
	require.Equal(t, uint32(core.TWIDefaultRateHz), m.TWI.RateHz())
}

type busLog struct {
	data []byte
	sent int
	naks int
}

func (b *busLog) DataReceived(addr uint8, data []byte) { b.data = append([]byte(nil), data...) }
func (b *busLog) TransmitComplete(addr uint8)          { b.sent++ }
func (b *busLog) Nak(addr uint8)                       { b.naks++ }

func TestMachineAsyncBus(t *testing.T) {
	m := newMachine(t, Config{StopPolls: 3})
	imu := NewIMU(t)
	m.TWI.Attach(imu)

	log := &busLog{}
	require.NoError(t, m.Boot(core.BoardFunc(func(rt *core.Runtime) {
		rt.TWI.StartMaster(log)
		rt.TWI.SendTo(mpu6050.Address, []byte{mpu6050.ACCEL_XOUT_H})
	})))
	require.NoError(t, m.Step(5))
	require.Equal(t, 1, log.sent)

	require.NoError(t, m.Guard(func() { m.RT.TWI.RequestFrom(mpu6050.Address, 6) }))
	require.NoError(t, m.Step(5))
	require.Equal(t, []byte{0, 0, 0, 0, 0x40, 0}, log.data)

	m.TWI.Detach(mpu6050.Address)
	require.NoError(t, m.Guard(func() { m.RT.TWI.RequestFrom(mpu6050.Address, 1) }))
	require.NoError(t, m.Step(5))
	require.Equal(t, 1, log.naks)

	m.TWI.Attach(imu)
	m.TWI.LoseArbitration()
	require.NoError(t, m.Guard(func() { m.RT.TWI.SendTo(mpu6050.Address, []byte{0}) }))
	require.NoError(t, m.Step(5))
	require.Equal(t, 2, log.naks)
}

func TestMachineHalt(t *testing.T) {
	m := newMachine(t, Config{})
	err := m.Boot(core.BoardFunc(func(rt *core.Runtime) {
		rt.Serial.Configure(115200, rt.Clock.CPUHz())
		rt.TWI.StartMaster(nil)
		rt.TWI.SendTo(0x10, []byte{1})
		rt.TWI.SendTo(0x10, []byte{2})
	}))

	want := core.SubsysTWI | core.ReasonBusy
	require.Equal(t, Halted{Code: want}, err)
	require.EqualError(t, err, "device halted: twi/busy")

	code, ok := m.Halted()
	require.True(t, ok)
	require.Equal(t, want, code)
	require.Equal(t, byte(want), m.EEPROM.ReadByte(core.NVLastFatal))
	require.Equal(t, []byte{protocol.SyncByte, byte(want)}, m.UART.Output())
	require.False(t, m.IRQ.Enabled())

	require.Equal(t, Halted{Code: want}, m.Step(10))
}

func TestMachineResetBookkeeping(t *testing.T) {
	nv := &EEPROM{}
	first := NewWithEEPROM(Config{}, nv)
	require.NoError(t, first.Boot(core.BoardFunc(func(*core.Runtime) {})))
	require.Equal(t, uint16(1), first.RT.BootCount())

	second := NewWithEEPROM(Config{ResetCause: core.ResetWatchdog}, nv)
	require.NoError(t, second.Boot(core.BoardFunc(func(*core.Runtime) {})))
	require.Equal(t, uint16(2), second.RT.BootCount())
	require.Equal(t, byte(core.ResetPowerOn), nv.ReadByte(core.NVPrevResetFlags))
	require.Equal(t, byte(core.ResetWatchdog), nv.ReadByte(core.NVResetFlags))

	writes := nv.Writes()
	third := NewWithEEPROM(Config{ResetCause: core.ResetWatchdog}, nv)
	require.NoError(t, third.Boot(core.BoardFunc(func(*core.Runtime) {})))
	// Same cause again: previous flags and counter change, current flags do not.
	require.Equal(t, writes+2, nv.Writes())
}
