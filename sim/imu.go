package sim

import (
	"tinygo.org/x/drivers/mpu6050"
	"tinygo.org/x/drivers/tester"
)

// IMU is a register-level MPU-6050.
type IMU struct {
	*RegisterDevice
}

// NewIMU creates an MPU-6050 at its default address, at rest with +1 g on Z.
func NewIMU(f tester.Failer) *IMU {
	imu := &IMU{NewRegisterDevice(f, mpu6050.Address)}
	imu.Dev.Registers[mpu6050.WHO_AM_I] = mpu6050.Address
	imu.Dev.Registers[mpu6050.PWR_MGMT_1] = 0x40 // sleeping after power-on
	imu.SetAccel(0, 0, 16384)
	return imu
}

// SetAccel loads raw accelerometer samples (16384 per g at ±2 g).
func (imu *IMU) SetAccel(x, y, z int16) {
	r := imu.Dev.Registers[mpu6050.ACCEL_XOUT_H:]
	for i, v := range [3]int16{x, y, z} {
		r[2*i] = uint8(uint16(v) >> 8)
		r[2*i+1] = uint8(v)
	}
}

// Awake reports whether the sleep bit has been cleared.
func (imu *IMU) Awake() bool {
	return imu.Dev.Registers[mpu6050.PWR_MGMT_1]&0x40 == 0
}
