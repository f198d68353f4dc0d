package vm

import (
	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
)

// State is the modal machine state tracked during interpretation.
type State struct {
	MotionMode       int               `json:"motionMode"`
	Plane            coord.PlaneSelect `json:"plane"`
	Units            int               `json:"units"`
	CoordinateSystem int               `json:"coordinateSystem"`
	Positioning      int               `json:"positioning"`

	// Position is the interpreter's belief of the tool tip. Only motion
	// commands change it.
	Position coord.Point `json:"position"`

	Feedrate     float64           `json:"feedrate"`
	SpindleSpeed float64           `json:"spindleSpeed"`
	SpindleDir   machine.Direction `json:"spindleDir"`
	Coolant      bool              `json:"coolant"`
	CurrentTool  int               `json:"currentTool"`

	WorkOffset coord.Point `json:"workOffset"`
	ToolOffset coord.Point `json:"toolOffset"`
}

// DefaultState returns the power-on state: G0 G17 G21 G54 G90, tool 1,
// feed 100 mm/min, spindle off.
func DefaultState() State {
	return State{
		MotionMode:       0,
		Plane:            coord.PlaneXY,
		Units:            21,
		CoordinateSystem: 54,
		Positioning:      90,
		Feedrate:         100,
		CurrentTool:      1,
	}
}

func (s State) Inches() bool         { return s.Units == 20 }
func (s State) RelativeMotion() bool { return s.Positioning == 91 }
func (s State) SpindleRunning() bool { return s.SpindleDir != 0 && s.SpindleSpeed > 0 }
