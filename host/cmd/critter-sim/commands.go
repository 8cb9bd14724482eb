package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"critter/core"
)

var commands = []*ishell.Cmd{
	&RunCmd,
	&PinCmd,
	&SendCmd,
	&OutCmd,
	&IMUCmd,
	&NVCmd,
	&StatusCmd,
	&TraceCmd,
}

// printOutput shows what the robot has sent since the last call.
func printOutput(c *ishell.Context, s *session) {
	if out := s.m.UART.TakeOutput(); len(out) > 0 {
		c.Printf("%q\n", out)
	}
}

// report prints a halt, if that is what err is.
func report(c *ishell.Context, s *session, err error) {
	printOutput(c, s)
	if err != nil {
		c.Err(err)
	}
}

var (
	// RunCmd advances simulated time.
	RunCmd = ishell.Cmd{
		Name:    "run",
		Aliases: []string{"r"},
		Help:    "MILLIS",
		Func: func(c *ishell.Context) {
			ms := uint64(100)
			if len(c.Args) > 0 {
				v, err := strconv.ParseUint(c.Args[0], 10, 32)
				if err != nil {
					c.Err(fmt.Errorf("bad duration %q: %w", c.Args[0], err))
					return
				}
				ms = v
			}
			s := sessionFrom(c)
			report(c, s, s.m.Step(uint32(ms)))
		},
	}

	// PinCmd drives a pin-change pin.
	PinCmd = ishell.Cmd{
		Name: "pin",
		Help: "PIN 0|1",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: pin PIN 0|1"))
				return
			}
			pin, err := strconv.ParseUint(c.Args[0], 10, 8)
			if err != nil {
				c.Err(fmt.Errorf("bad pin %q: %w", c.Args[0], err))
				return
			}
			s := sessionFrom(c)
			report(c, s, s.m.SetPin(uint8(pin), c.Args[1] == "1"))
		},
	}

	// SendCmd types on the robot's console.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "TEXT",
		Func: func(c *ishell.Context) {
			s := sessionFrom(c)
			report(c, s, s.m.Inject([]byte(strings.Join(c.Args, " "))))
		},
	}

	// OutCmd prints pending serial output.
	OutCmd = ishell.Cmd{
		Name: "out",
		Help: "",
		Func: func(c *ishell.Context) {
			printOutput(c, sessionFrom(c))
		},
	}

	// IMUCmd loads raw accelerometer samples.
	IMUCmd = ishell.Cmd{
		Name: "imu",
		Help: "X Y Z",
		Func: func(c *ishell.Context) {
			s := sessionFrom(c)
			if s.imu == nil {
				c.Err(fmt.Errorf("no imu on the bus"))
				return
			}
			if len(c.Args) != 3 {
				c.Err(fmt.Errorf("usage: imu X Y Z"))
				return
			}
			var v [3]int16
			for i, a := range c.Args {
				n, err := strconv.ParseInt(a, 10, 16)
				if err != nil {
					c.Err(fmt.Errorf("bad sample %q: %w", a, err))
					return
				}
				v[i] = int16(n)
			}
			s.imu.SetAccel(v[0], v[1], v[2])
		},
	}

	// NVCmd dumps the diagnostic bytes kept across resets.
	NVCmd = ishell.Cmd{
		Name: "nv",
		Help: "",
		Func: func(c *ishell.Context) {
			nv := sessionFrom(c).m.EEPROM
			last := core.FatalCode(nv.ReadByte(core.NVLastFatal))
			boots := uint16(nv.ReadByte(core.NVBootCount)) | uint16(nv.ReadByte(core.NVBootCount+1))<<8
			c.Printf("last fatal   %#02x %s\n", uint8(last), last)
			c.Printf("reset flags  %#02x (previous %#02x)\n", nv.ReadByte(core.NVResetFlags), nv.ReadByte(core.NVPrevResetFlags))
			c.Printf("boots        %d\n", boots)
			c.Printf("writes       %d\n", nv.Writes())
		},
	}

	// StatusCmd prints board and machine state.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := sessionFrom(c)
			if code, halted := s.m.Halted(); halted {
				c.Printf("HALTED %s, blinking %d\n", code, code.Reason())
				return
			}
			c.Println(s.board.Status())
			c.Printf("sim ms=%d twi-stops=%d wdt-feeds=%d\n",
				s.m.Timer.Elapsed(), s.m.TWI.Stops(), s.m.Watchdog.Resets())
		},
	}

	// TraceCmd prints the runtime's event trace.
	TraceCmd = ishell.Cmd{
		Name: "trace",
		Help: "",
		Func: func(c *ishell.Context) {
			for _, e := range sessionFrom(c).m.RT.Trace.Events() {
				c.Printf("%6d kind=%d arg=%d value=%d\n", e.Millis, e.Kind, e.Arg, e.Value)
			}
		},
	}
)
