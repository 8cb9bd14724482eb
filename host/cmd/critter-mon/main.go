// critter-mon watches a robot's serial port, passes its console through and
// decodes halt reports.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"critter/host/monitor"
	"critter/host/serial"
)

var (
	device = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate, as configured on the board")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()
	if err := port.Flush(); err != nil {
		glog.Warningf("flush %s: %v", *device, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mon := monitor.New(port, os.Stdout)
	mon.Follow = true
	mon.OnHalt(func(e monitor.Event) {
		fmt.Fprintf(os.Stderr, "\n*** %s\n", e)
	})

	// Keys typed on stdin go to the robot's console.
	go func() {
		in := bufio.NewReader(os.Stdin)
		for {
			c, err := in.ReadByte()
			if err != nil {
				return
			}
			if c == '\n' {
				continue
			}
			if err := mon.Send([]byte{c}); err != nil {
				glog.Errorf("%v", err)
				cancel()
				return
			}
		}
	}()

	glog.Infof("watching %s at %d baud", *device, *baud)
	if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
