package config

import (
	"errors"
	"fmt"

	"critter/core"
)

// BoardConfig describes one robot's wiring and timing.
type BoardConfig struct {
	Name           string `json:"name"`
	CPUHz          uint32 `json:"cpu_hz"`
	Baud           uint32 `json:"baud"`
	TWIRateHz      uint32 `json:"twi_rate_hz"`
	WatchdogMillis uint16 `json:"watchdog_ms"`

	HeartbeatMillis uint16 `json:"heartbeat_ms"`
	IMUPollMillis   uint16 `json:"imu_poll_ms"` // 0 disables the IMU
	IMUAddress      uint8  `json:"imu_address"`

	// Bumpers maps a switch name to its pin-change pin (0..23).
	Bumpers map[string]uint8 `json:"bumpers"`
}

var (
	ErrBadPin  = errors.New("pin out of range")
	ErrBadBaud = errors.New("unsupported baud rate")
	ErrBadRate = errors.New("unsupported bus rate")
)

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BoardConfig) {
	if config.Name == "" {
		config.Name = "walker"
	}
	if config.CPUHz == 0 {
		config.CPUHz = core.DefaultCPUHz
	}
	if config.Baud == 0 {
		config.Baud = 115200
	}
	if config.TWIRateHz == 0 {
		config.TWIRateHz = core.TWIDefaultRateHz
	}
	if config.WatchdogMillis == 0 {
		config.WatchdogMillis = core.DefaultWatchdogMillis
	}
	if config.HeartbeatMillis == 0 {
		config.HeartbeatMillis = 500
	}
	if config.IMUAddress == 0 {
		config.IMUAddress = 0x68 // MPU-6050 with AD0 low
	}
}

// Validate checks values the runtime would otherwise halt on.
func (c *BoardConfig) Validate() error {
	if _, _, ok := core.BaudDivisor(c.Baud, c.CPUHz); !ok {
		return fmt.Errorf("baud %d at %d Hz: %w", c.Baud, c.CPUHz, ErrBadBaud)
	}
	if _, ok := core.TWIBitRateDivisor(c.TWIRateHz, c.CPUHz); !ok {
		return fmt.Errorf("twi rate %d at %d Hz: %w", c.TWIRateHz, c.CPUHz, ErrBadRate)
	}
	for name, pin := range c.Bumpers {
		if pin >= core.PinCount {
			return fmt.Errorf("bumper %q on pin %d: %w", name, pin, ErrBadPin)
		}
	}
	if c.HeartbeatMillis > core.MaxAfterMillis || c.IMUPollMillis > core.MaxAfterMillis {
		return fmt.Errorf("period longer than %d ms", core.MaxAfterMillis)
	}
	if c.IMUAddress > 0x7F {
		return fmt.Errorf("imu address %#x is not a 7-bit address", c.IMUAddress)
	}
	return nil
}

// RuntimeOptions converts the timing fields to core.Options.
func (c *BoardConfig) RuntimeOptions() core.Options {
	return core.Options{
		CPUHz:          c.CPUHz,
		TWIRateHz:      c.TWIRateHz,
		WatchdogMillis: c.WatchdogMillis,
	}
}

// DefaultWalkerConfig returns the configuration of the stock walker board.
func DefaultWalkerConfig() *BoardConfig {
	return &BoardConfig{
		Name:            "walker",
		CPUHz:           16000000,
		Baud:            115200,
		TWIRateHz:       100000,
		WatchdogMillis:  2000,
		HeartbeatMillis: 500,
		IMUPollMillis:   100,
		IMUAddress:      0x68,
		Bumpers: map[string]uint8{
			"left":  2,
			"right": 3,
		},
	}
}
