// Package serial opens the robot's console port from the host.
package serial

import "io"

// Port is an open console link. Flush drops input buffered before the
// session started, so a monitor does not report a stale halt.
type Port interface {
	io.ReadWriteCloser
	Flush() error
}

// Config selects the device and its line settings. The firmware always runs
// 8N1, so only the rate is configurable.
type Config struct {
	Device      string // /dev/ttyUSB0, COM3, ...
	Baud        int    // must match the board profile's baud
	ReadTimeout int    // milliseconds; 0 blocks
}

// DefaultConfig matches the stock walker profile: 115200 baud, and a short
// read timeout so a monitor can notice cancellation.
func DefaultConfig(device string) *Config {
	return &Config{Device: device, Baud: 115200, ReadTimeout: 100}
}
