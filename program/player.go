package program

import (
	"errors"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/vm"
	"github.com/sirupsen/logrus"
)

// player applies toolpath segments to a machine. Spindle, coolant and
// feed are only sent when they differ from what was last applied.
type player struct {
	m   machine.Adapter
	log logrus.FieldLogger

	primed  bool
	rpm     float64
	dir     machine.Direction
	coolant bool
	feed    float64
}

func (p *player) reset() { p.primed = false }

func (p *player) apply(s vm.Segment) error {
	if p.m == nil {
		return nil
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if !p.primed || s.SpindleDir != p.dir || s.SpindleSpeed != p.rpm {
		if s.SpindleDir == machine.Stopped || s.SpindleSpeed == 0 {
			add(p.m.StopSpindle())
		} else {
			add(p.m.SetSpindleSpeed(s.SpindleSpeed, s.SpindleDir))
		}
		p.rpm, p.dir = s.SpindleSpeed, s.SpindleDir
	}
	if !p.primed || s.Coolant != p.coolant {
		add(p.m.SetCoolant(s.Coolant))
		p.coolant = s.Coolant
	}
	if fs, ok := p.m.(machine.FeedrateSetter); ok && s.Feedrate > 0 && (!p.primed || s.Feedrate != p.feed) {
		add(fs.SetFeedrate(s.Feedrate))
		p.feed = s.Feedrate
	}
	p.primed = true

	switch {
	case s.Type == vm.SegmentDrill && s.Drill != nil:
		pts, _ := s.Points(0)
		add(p.moveTo(pts[0], true))
		add(p.moveTo(pts[1], false))
		add(p.moveTo(pts[2], true))
	default:
		add(p.moveTo(s.End, s.Type == vm.SegmentRapid))
	}

	return errors.Join(errs...)
}

func (p *player) moveTo(pt coord.Point, rapid bool) error {
	var errs []error
	for _, a := range coord.Axes {
		if _, err := p.m.MoveAxis(a, pt.Get(a), rapid); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
