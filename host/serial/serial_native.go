//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// ErrNoConfig is returned by Open for a nil config.
var ErrNoConfig = errors.New("serial: config cannot be nil")

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}

	// The board's USART is fixed at 8N1.
	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// ErrClosed is returned by I/O on a port after Close.
var ErrClosed = errors.New("serial: port closed")

func (p *NativePort) Read(b []byte) (int, error) {
	if p.port == nil {
		return 0, ErrClosed
	}
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	if p.port == nil {
		return 0, ErrClosed
	}
	return p.port.Write(b)
}

// Close releases the device. Further I/O returns ErrClosed.
func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// Flush discards unread input so a fresh session does not see stale bytes
func (p *NativePort) Flush() error {
	if p.port == nil {
		return ErrClosed
	}
	return p.port.Flush()
}
