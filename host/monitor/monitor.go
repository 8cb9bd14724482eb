// Package monitor watches a robot's serial stream: console text is passed
// through, halt diagnostics are decoded into events.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"critter/core"
	"critter/protocol"
)

// Event is one halt report seen on the wire.
type Event struct {
	Code core.FatalCode
	At   time.Time
}

// Blinks is the number of indicator pulses per round for this halt.
func (e Event) Blinks() int {
	return int(e.Code.Reason())
}

func (e Event) String() string {
	return fmt.Sprintf("halt %s (%#02x, %d blinks)", e.Code, uint8(e.Code), e.Blinks())
}

// Monitor reads a port until it fails or the context ends.
type Monitor struct {
	// Follow keeps reading after io.EOF. Serial ports report a read
	// timeout that way.
	Follow bool

	port    io.ReadWriter
	console io.Writer
	scanner *protocol.DiagScanner
	onHalt  func(Event)
	now     func() time.Time

	halts []Event
}

// New creates a monitor. Console text goes to console, which may be nil.
func New(port io.ReadWriter, console io.Writer) *Monitor {
	if console == nil {
		console = io.Discard
	}
	return &Monitor{
		port:    port,
		console: console,
		scanner: protocol.NewDiagScanner(func(b byte) bool { return core.FatalCode(b).Valid() }),
		now:     time.Now,
	}
}

// OnHalt installs a callback for decoded halt reports.
func (m *Monitor) OnHalt(fn func(Event)) {
	m.onHalt = fn
}

// Halts returns every halt seen so far.
func (m *Monitor) Halts() []Event {
	return m.halts
}

// Send writes console keys to the robot.
func (m *Monitor) Send(keys []byte) error {
	if _, err := m.port.Write(keys); err != nil {
		return fmt.Errorf("send to robot: %w", err)
	}
	return nil
}

// Feed processes bytes already read from the port.
func (m *Monitor) Feed(data []byte) error {
	text, codes := m.scanner.Feed(data)
	if len(text) > 0 {
		if _, err := m.console.Write(text); err != nil {
			return fmt.Errorf("write console: %w", err)
		}
	}
	for _, c := range codes {
		evt := Event{Code: core.FatalCode(c), At: m.now()}
		glog.Warningf("robot %s", evt)
		m.halts = append(m.halts, evt)
		if m.onHalt != nil {
			m.onHalt(evt)
		}
	}
	return nil
}

// Run reads the port until ctx is done or the port fails. io.EOF ends the
// run cleanly unless Follow is set.
func (m *Monitor) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := m.port.Read(buf)
		if n > 0 {
			glog.V(2).Infof("RCV %d bytes", n)
			if ferr := m.Feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			if !m.Follow {
				return nil
			}
		default:
			return fmt.Errorf("read serial: %w", err)
		}
	}
}
