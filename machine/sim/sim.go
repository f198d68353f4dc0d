// Package sim provides a simulated machine that tracks axis positions,
// spindle and coolant within the limits of a Profile.
package sim

import (
	"errors"
	"math"
	"sync"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/sirupsen/logrus"
)

// ErrEmergencyStop is returned by every command while the machine is halted.
var ErrEmergencyStop = errors.New("emergency stop active")

const (
	StatusIdle  = "Idle"
	StatusRun   = "Run"
	StatusAlarm = "Alarm"
)

type Machine struct {
	profile Profile
	log     logrus.FieldLogger

	mx      sync.Mutex
	pos     coord.Point
	rpm     float64
	dir     machine.Direction
	coolant bool
	halted  bool

	state chan machine.State
}

var (
	_ machine.Adapter  = &Machine{}
	_ machine.Reporter = &Machine{}
)

func New(p Profile, log logrus.FieldLogger) *Machine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Machine{
		profile: p,
		log:     log.WithField("machine", p.Name),
		pos:     p.Home,
		state:   make(chan machine.State),
	}
}

func (m *Machine) Profile() Profile { return m.profile }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func (m *Machine) limit(a coord.Axis, v float64) float64 {
	p := m.profile
	switch a {
	case coord.AxisX:
		return clamp(v, -p.XTravel/2, p.XTravel/2)
	case coord.AxisY:
		return clamp(v, -p.YTravel/2, p.YTravel/2)
	case coord.AxisZ:
		return clamp(v, -p.ZTravel/2, p.ZTravel/2)
	case coord.AxisA:
		return clamp(v, p.AMin, p.AMax)
	case coord.AxisB:
		// continuous rotation
		return math.Mod(v, 360)
	}
	return v
}

func (m *Machine) MoveAxis(a coord.Axis, target float64, rapid bool) (float64, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.halted {
		return m.pos.Get(a), ErrEmergencyStop
	}

	v := m.limit(a, target)
	if v != target && a != coord.AxisB {
		m.log.WithFields(logrus.Fields{"axis": a, "target": target, "actual": v}).Warn("move clamped to travel")
	}
	m.pos = m.pos.With(a, v)
	m.publish()
	return v, nil
}

func (m *Machine) SetSpindleSpeed(rpm float64, dir machine.Direction) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.halted {
		return ErrEmergencyStop
	}
	m.rpm = clamp(rpm, 0, m.profile.MaxSpindleSpeed)
	m.dir = dir
	if m.rpm == 0 {
		m.dir = machine.Stopped
	}
	m.publish()
	return nil
}

func (m *Machine) StopSpindle() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.rpm, m.dir = 0, machine.Stopped
	m.publish()
	return nil
}

func (m *Machine) SetCoolant(on bool) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.halted && on {
		return ErrEmergencyStop
	}
	m.coolant = on
	m.publish()
	return nil
}

func (m *Machine) CurrentPosition() coord.Point {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.pos
}

// EmergencyStop stops the spindle and coolant and refuses further
// commands until Reset.
func (m *Machine) EmergencyStop() {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.rpm, m.dir, m.coolant = 0, machine.Stopped, false
	m.halted = true
	m.log.Warn("emergency stop activated")
	m.publish()
}

// Reset clears an emergency stop and homes the machine.
func (m *Machine) Reset() {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.halted = false
	m.pos = m.profile.Home
	m.publish()
}

func (m *Machine) snapshot() machine.State {
	s := machine.State{
		Status:     StatusIdle,
		Position:   m.pos,
		SpindleRPM: m.rpm,
		SpindleDir: m.dir,
		Coolant:    m.coolant,
	}
	switch {
	case m.halted:
		s.Status = StatusAlarm
	case m.rpm > 0:
		s.Status = StatusRun
	}
	return s
}

// publish must be called with mx held.
func (m *Machine) publish() {
	select {
	case m.state <- m.snapshot():
	default:
	}
}

func (m *Machine) CurrentState() machine.State {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.snapshot()
}

func (m *Machine) State() chan machine.State { return m.state }
