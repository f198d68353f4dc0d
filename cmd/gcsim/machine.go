package main

import (
	"fmt"
	"io"
	"time"

	"github.com/mastercactapus/gcsim/config"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/machine/grbl"
	"github.com/mastercactapus/gcsim/machine/sim"
	"github.com/mastercactapus/gcsim/spjs"
)

const statusPoll = 500 * time.Millisecond

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openMachine connects to the configured machine. The returned rapid rate
// is used to time playback.
func (c *cli) openMachine() (machine.Adapter, float64, io.Closer, error) {
	switch c.cfg.Machine {
	case config.MachineGrbl:
		port, err := grbl.OpenSerial(c.cfg.SerialPort, c.cfg.Baud)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("open %s: %w", c.cfg.SerialPort, err)
		}
		a := grbl.NewAdapter(port, c.log, statusPoll)
		return a, 0, a, nil
	case config.MachineSPJS:
		sp := spjs.New(c.cfg.SPJSURL, c.log)
		port, err := sp.Port(c.cfg.SerialPort, c.cfg.Baud)
		if err != nil {
			sp.Close()
			return nil, 0, nil, err
		}
		a := grbl.NewAdapter(port, c.log, statusPoll)
		return a, 0, multiCloser{a, sp}, nil
	}

	profile, err := c.simProfile()
	if err != nil {
		return nil, 0, nil, err
	}
	return sim.New(profile, c.log), profile.MaxFeedrate, nopCloser{}, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
