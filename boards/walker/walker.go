// Package walker is the stock walking-robot board: a heartbeat LED, bumper
// switches, an MPU-6050 on the two-wire bus and a one-key serial console.
package walker

import (
	"strconv"

	"tinygo.org/x/drivers/mpu6050"

	"critter/config"
	"critter/core"
)

// Console keys
const (
	KeyStatus = 's'
	KeyFault  = 'x'
	KeyHelp   = '?'
)

// Board implements core.Board and core.Poller.
type Board struct {
	cfg *config.BoardConfig

	// LED drives the status indicator; set by the target before boot.
	LED func(on bool)

	rt  *core.Runtime
	imu mpu6050.Device

	led   bool
	beats uint32

	imuOK   bool
	accel   [3]int16
	samples uint32
	naks    uint32

	bumpers []*bumper
}

// bumper watches one switch and reports changes from task context.
type bumper struct {
	b      *Board
	name   string
	pin    uint8
	level  bool
	count  uint32
	queued bool
}

// New creates a board. A nil cfg selects DefaultWalkerConfig.
func New(cfg *config.BoardConfig) *Board {
	if cfg == nil {
		cfg = config.DefaultWalkerConfig()
	}
	return &Board{cfg: cfg}
}

// Setup runs once at boot.
func (b *Board) Setup(rt *core.Runtime) {
	b.rt = rt
	rt.Halt.SetBlink(b.setLED)
	rt.Serial.Configure(b.cfg.Baud, rt.Clock.CPUHz())
	b.print("walker " + b.cfg.Name + " boot " + strconv.Itoa(int(rt.BootCount())) + "\r\n")

	rt.Sched.After(b.cfg.HeartbeatMillis, b.heartbeat, nil)

	for name, pin := range b.cfg.Bumpers {
		bp := &bumper{b: b, name: name, pin: pin}
		b.bumpers = append(b.bumpers, bp)
		rt.Pins.OnPinChange(pin, bp)
	}

	if b.cfg.IMUPollMillis > 0 {
		b.setupIMU()
	}
}

func (b *Board) setupIMU() {
	rt := b.rt
	rt.TWI.StartMaster(b)

	b.imu = mpu6050.New(&rt.TWI)
	b.imu.Address = uint16(b.cfg.IMUAddress)
	if !b.imu.Connected() {
		b.print("imu missing\r\n")
		return
	}
	if err := b.imu.Configure(); err != nil {
		b.print("imu: " + err.Error() + "\r\n")
		return
	}
	b.imuOK = true
	rt.Sched.After(b.cfg.IMUPollMillis, b.pollIMU, nil)
}

// Poll serves the console.
func (b *Board) Poll() {
	for {
		c, ok := b.rt.Serial.Getch()
		if !ok {
			return
		}
		switch c {
		case KeyStatus:
			b.print(b.Status() + "\r\n")
		case KeyFault:
			b.rt.Halt.Fatal(core.SubsysUI | core.ReasonUnexpected)
		case KeyHelp:
			b.print("s status, x halt\r\n")
		}
	}
}

// Status is the one-line state summary the console prints.
func (b *Board) Status() string {
	rt := b.rt
	return "up=" + strconv.Itoa(int(rt.Clock.ReadMillis())) +
		" boots=" + strconv.Itoa(int(rt.BootCount())) +
		" beats=" + strconv.Itoa(int(b.beats)) +
		" imu=" + strconv.Itoa(int(b.accel[0])) + "," + strconv.Itoa(int(b.accel[1])) + "," + strconv.Itoa(int(b.accel[2])) +
		" samples=" + strconv.Itoa(int(b.samples)) +
		" naks=" + strconv.Itoa(int(b.naks)) +
		" overruns=" + strconv.Itoa(int(rt.Serial.Overruns())) +
		" tasks=" + strconv.Itoa(rt.Sched.Pending())
}

func (b *Board) print(s string) {
	b.rt.Serial.SendAll([]byte(s))
}

func (b *Board) setLED(on bool) {
	b.led = on
	if b.LED != nil {
		b.LED(on)
	}
}

func (b *Board) heartbeat(any) {
	b.beats++
	b.setLED(!b.led)
	b.rt.Sched.After(b.cfg.HeartbeatMillis, b.heartbeat, nil)
}

// pollIMU asks for the accelerometer registers; the rest of the read is
// driven by the bus callbacks.
func (b *Board) pollIMU(any) {
	if !b.rt.TWI.IsBusy() {
		b.rt.TWI.SendTo(b.cfg.IMUAddress, []byte{mpu6050.ACCEL_XOUT_H})
	}
	b.rt.Sched.After(b.cfg.IMUPollMillis, b.pollIMU, nil)
}

func (b *Board) TransmitComplete(addr uint8) {
	b.rt.TWI.RequestFrom(addr, 6)
}

func (b *Board) DataReceived(addr uint8, data []byte) {
	if len(data) != 6 {
		return
	}
	for i := range b.accel {
		b.accel[i] = int16(uint16(data[2*i])<<8 | uint16(data[2*i+1]))
	}
	b.samples++
}

func (b *Board) Nak(addr uint8) {
	b.naks++
}

// PinChanged runs in interrupt context: note the level and leave the
// reporting to a task.
func (bp *bumper) PinChanged(pin uint8, level bool) {
	bp.level = level
	bp.count++
	if !bp.queued {
		bp.queued = true
		bp.b.rt.Sched.After(0, bp.report, nil)
	}
}

func (bp *bumper) report(any) {
	bp.queued = false
	state := "0"
	if bp.level {
		state = "1"
	}
	bp.b.print("bump " + bp.name + " " + state + "\r\n")
}

// LEDOn reports the indicator state.
func (b *Board) LEDOn() bool { return b.led }

// Beats returns heartbeat count.
func (b *Board) Beats() uint32 { return b.beats }

// IMUConnected reports whether the IMU answered at boot.
func (b *Board) IMUConnected() bool { return b.imuOK }

// Accel returns the last raw accelerometer sample.
func (b *Board) Accel() [3]int16 { return b.accel }

// Samples returns the number of IMU samples read.
func (b *Board) Samples() uint32 { return b.samples }

// Bumps returns how many edges the named bumper has seen.
func (b *Board) Bumps(name string) uint32 {
	for _, bp := range b.bumpers {
		if bp.name == name {
			return bp.count
		}
	}
	return 0
}
