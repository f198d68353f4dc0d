package machine

import (
	"github.com/mastercactapus/gcsim/coord"
)

// Direction is the spindle rotation: 1 clockwise (M3), -1 counter-clockwise
// (M4), 0 stopped.
type Direction int

const (
	Stopped Direction = 0
	CW      Direction = 1
	CCW     Direction = -1
)

func (d Direction) String() string {
	switch d {
	case CW:
		return "cw"
	case CCW:
		return "ccw"
	}
	return "off"
}

// An Adapter represents the minimal CNC machine interface.
type Adapter interface {
	// MoveAxis moves a single axis and returns the value it actually
	// reached, which may be clamped to the machine's travel.
	MoveAxis(axis coord.Axis, target float64, rapid bool) (float64, error)

	SetSpindleSpeed(rpm float64, dir Direction) error
	StopSpindle() error
	SetCoolant(on bool) error

	// CurrentPosition is for display only.
	CurrentPosition() coord.Point
}

// A FeedrateSetter is told the feed for subsequent non-rapid moves.
// Adapters that stream G-code to a controller implement it.
type FeedrateSetter interface {
	SetFeedrate(mmPerMin float64) error
}
