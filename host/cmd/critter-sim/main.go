// critter-sim runs the walker board on a simulated controller behind an
// interactive shell.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"critter/boards/walker"
	"critter/config"
	"critter/core"
	"critter/sim"
)

var (
	configPath = flag.String("config", "", "Board config JSON (default: stock walker)")
	noIMU      = flag.Bool("no-imu", false, "Leave the IMU off the bus")
	txPerMilli = flag.Int("tx-per-ms", 0, "Serial bytes sent per simulated millisecond (0 = instant)")
)

const simKey = "$sim"

// session is the simulated robot the shell drives.
type session struct {
	cfg   *config.BoardConfig
	m     *sim.Machine
	board *walker.Board
	imu   *sim.IMU
}

func sessionFrom(c *ishell.Context) *session {
	return c.Get(simKey).(*session)
}

func newSession(cfg *config.BoardConfig, withIMU bool) (*session, error) {
	m := sim.New(sim.Config{
		Options:    cfg.RuntimeOptions(),
		TxPerMilli: *txPerMilli,
	})
	s := &session{cfg: cfg, m: m, board: walker.New(cfg)}
	if withIMU {
		s.imu = sim.NewIMU(sim.LogFailer{})
		m.TWI.Attach(s.imu)
	}
	s.board.LED = func(on bool) { glog.V(2).Infof("led %v", on) }
	if err := m.Boot(s.board); err != nil {
		return s, fmt.Errorf("boot: %w", err)
	}
	return s, nil
}

func loadConfig() (*config.BoardConfig, error) {
	if *configPath == "" {
		return config.DefaultWalkerConfig(), nil
	}
	return config.LoadFile(*configPath)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	core.SetDebugWriter(func(s string) { glog.Info(s) })
	core.SetDebugEnabled(bool(glog.V(1)))

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s, err := newSession(cfg, !*noIMU)
	if err != nil {
		// A board that halts at boot is still worth inspecting.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	shell := ishell.New()
	shell.Set(simKey, s)
	shell.SetPrompt(cfg.Name + " > ")
	for _, cmd := range commands {
		shell.AddCmd(cmd)
	}

	if args := flag.Args(); len(args) > 0 {
		if err := shell.Process(args...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	shell.Printf("simulating %s at %d Hz\n", cfg.Name, cfg.CPUHz)
	shell.Run()
}
