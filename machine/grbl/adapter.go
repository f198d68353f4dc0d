package grbl

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/gcode"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/sirupsen/logrus"
)

// DefaultFeedrate is used for feed moves until SetFeedrate is called.
const DefaultFeedrate = 1000

// ErrUnsupportedAxis is returned when moving an axis the controller lacks.
var ErrUnsupportedAxis = errors.New("axis not supported by controller")

// Adapter drives a grbl controller as a machine.Adapter. Every call is
// sent as one G-code line and returns once grbl acknowledges it.
type Adapter struct {
	conn *Conn
	log  logrus.FieldLogger

	// Axes lists the axes the controller has; X, Y and Z by default.
	Axes []coord.Axis

	mx       sync.Mutex
	feed     float64
	wco      coord.Point
	target   map[coord.Axis]float64
	last     machine.State
	state    chan machine.State
	stopPoll chan struct{}
}

var (
	_ machine.Adapter        = &Adapter{}
	_ machine.Reporter       = &Adapter{}
	_ machine.FeedrateSetter = &Adapter{}
)

// NewAdapter wraps rw in a Conn. If poll is non-zero a status report is
// requested at that interval.
func NewAdapter(rw io.ReadWriter, log logrus.FieldLogger, poll time.Duration) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := &Adapter{
		conn:     NewConn(rw, log),
		log:      log,
		Axes:     []coord.Axis{coord.AxisX, coord.AxisY, coord.AxisZ},
		feed:     DefaultFeedrate,
		target:   make(map[coord.Axis]float64),
		last:     machine.State{Status: "Unknown"},
		state:    make(chan machine.State),
		stopPoll: make(chan struct{}),
	}
	go a.loop()
	if poll > 0 {
		go a.poll(poll)
	}
	return a
}

func (a *Adapter) Conn() *Conn { return a.conn }

func (a *Adapter) Close() error {
	close(a.stopPoll)
	return a.conn.Close()
}

func (a *Adapter) poll(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-a.stopPoll:
			return
		case <-a.conn.Done():
			return
		case <-t.C:
			if err := a.conn.WriteByte('?'); err != nil {
				a.log.WithError(err).Warn("grbl: status poll")
			}
		}
	}
}

func (a *Adapter) loop() {
	for {
		select {
		case <-a.conn.Done():
			return
		case line := <-a.conn.Lines():
			if !isStatusReport(line) {
				a.log.WithField("data", line).Info("grbl")
				continue
			}
			stat, err := parseStatus(line)
			if err != nil {
				a.log.WithError(err).Error("grbl: parse status")
				continue
			}
			a.update(stat)
		}
	}
}

func (a *Adapter) update(stat *statusReport) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if stat.WCO != nil {
		a.wco = *stat.WCO
	}
	a.last.Status = stat.Status
	switch {
	case stat.WPos != nil:
		a.last.Position = *stat.WPos
	case stat.MPos != nil:
		a.last.Position = stat.MPos.Sub(a.wco)
	}
	a.last.SpindleRPM = stat.Spindle
	select {
	case a.state <- a.last:
	default:
	}
}

func (a *Adapter) supports(axis coord.Axis) bool {
	for _, s := range a.Axes {
		if s == axis {
			return true
		}
	}
	return false
}

func (a *Adapter) send(b gcode.Block) error {
	line := b.String()
	a.log.WithField("line", line).Debug("grbl: send")
	if err := a.conn.WriteLine(line); err != nil {
		return fmt.Errorf("grbl %s: %w", line, err)
	}
	return nil
}

// MoveAxis sends an absolute move. Moves to the last commanded position
// are not sent.
func (a *Adapter) MoveAxis(axis coord.Axis, target float64, rapid bool) (float64, error) {
	if !a.supports(axis) {
		if target == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedAxis, axis)
	}

	a.mx.Lock()
	prev, ok := a.target[axis]
	feed := a.feed
	a.mx.Unlock()
	if ok && prev == target {
		return target, nil
	}

	b := gcode.Block{{W: 'G', Arg: 90}, {W: 'G', Arg: 0}, {W: byte(axis), Arg: target}}
	if !rapid {
		b[1].Arg = 1
		b = append(b, gcode.Word{W: 'F', Arg: feed})
	}
	if err := a.send(b); err != nil {
		return a.CurrentPosition().Get(axis), err
	}

	a.mx.Lock()
	a.target[axis] = target
	a.mx.Unlock()
	return target, nil
}

func (a *Adapter) SetFeedrate(f float64) error {
	if f <= 0 {
		return fmt.Errorf("invalid feedrate %g", f)
	}
	a.mx.Lock()
	a.feed = f
	a.mx.Unlock()
	return nil
}

func (a *Adapter) SetSpindleSpeed(rpm float64, dir machine.Direction) error {
	switch dir {
	case machine.CW:
		return a.send(gcode.Block{{W: 'M', Arg: 3}, {W: 'S', Arg: rpm}})
	case machine.CCW:
		return a.send(gcode.Block{{W: 'M', Arg: 4}, {W: 'S', Arg: rpm}})
	}
	return a.StopSpindle()
}

func (a *Adapter) StopSpindle() error { return a.send(gcode.Block{{W: 'M', Arg: 5}}) }

func (a *Adapter) SetCoolant(on bool) error {
	if on {
		return a.send(gcode.Block{{W: 'M', Arg: 8}})
	}
	return a.send(gcode.Block{{W: 'M', Arg: 9}})
}

// CurrentPosition is the work position from the last status report.
func (a *Adapter) CurrentPosition() coord.Point {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.last.Position
}

func (a *Adapter) CurrentState() machine.State {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.last
}

func (a *Adapter) State() chan machine.State { return a.state }
