package vm

import (
	"math"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/gcode"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/sirupsen/logrus"
)

// Interpreter executes commands against a modal State and records the
// resulting toolpath.
//
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	state    State
	toolpath []Segment

	adapter machine.Adapter
	log     logrus.FieldLogger
}

type Option func(*Interpreter)

// WithAdapter forwards moves, spindle and coolant changes to a as they
// are interpreted. Adapter failures are logged and do not affect the
// toolpath.
func WithAdapter(a machine.Adapter) Option {
	return func(in *Interpreter) { in.adapter = a }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(in *Interpreter) { in.log = l }
}

func New(opts ...Option) *Interpreter {
	in := &Interpreter{log: logrus.StandardLogger()}
	for _, o := range opts {
		o(in)
	}
	in.Reset()
	return in
}

// Reset returns to the power-on state and clears the toolpath.
func (in *Interpreter) Reset() {
	in.state = DefaultState()
	in.toolpath = nil
}

func (in *Interpreter) State() State { return in.state }

// Toolpath returns the segments produced by the last Execute.
func (in *Interpreter) Toolpath() []Segment {
	res := make([]Segment, len(in.toolpath))
	copy(res, in.toolpath)
	return res
}

// Execute runs every command in order and returns the segments they
// produced. Modal state and position carry over from earlier calls.
// A command that fails is logged and reported in the returned errors;
// the remaining commands still run.
func (in *Interpreter) Execute(cmds []gcode.Command) ([]Segment, []*CommandError) {
	in.toolpath = nil
	var errs []*CommandError
	for _, cmd := range cmds {
		err := in.ExecuteCommand(cmd)
		if err == nil {
			continue
		}
		cerr := &CommandError{Line: cmd.Line, Source: cmd.Source, Err: err}
		in.log.WithFields(logrus.Fields{
			"line":   cmd.Line,
			"source": cmd.Source,
		}).WithError(err).Error("command failed")
		errs = append(errs, cerr)
	}
	return in.Toolpath(), errs
}

// ExecuteCommand runs a single command.
func (in *Interpreter) ExecuteCommand(cmd gcode.Command) error {
	switch cmd.Kind {
	case gcode.KindG:
		return in.executeG(cmd)
	case gcode.KindM:
		in.executeM(cmd)
	case gcode.KindT:
		in.state.CurrentTool = int(cmd.Code)
	case gcode.KindModal:
		in.executeMotion(cmd, in.state.MotionMode)
	}
	return nil
}

func isInt(v float64) bool { return v == math.Trunc(v) }

func (in *Interpreter) executeG(cmd gcode.Command) error {
	code := cmd.Code
	switch cmd.Word().ModalGroup() {
	case gcode.ModalGroupMotion:
		switch code {
		case 0, 1, 2, 3:
			in.state.MotionMode = int(code)
			in.executeMotion(cmd, int(code))
		default:
			in.log.WithField("line", cmd.Line).Debugf("unsupported motion %s", cmd.Word())
		}
	case gcode.ModalGroupPlaneSelection:
		if isInt(code) {
			in.state.Plane = coord.PlaneSelect(code)
		}
	case gcode.ModalGroupUnits:
		in.state.Units = int(code)
	case gcode.ModalGroupCoordinateSystem:
		if isInt(code) {
			in.state.CoordinateSystem = int(code)
		}
	case gcode.ModalGroupDistanceMode:
		in.state.Positioning = int(code)
	case gcode.ModalGroupCannedCycle:
		if code == 80 {
			return nil
		}
		return in.executeCannedCycle(cmd)
	case gcode.ModalGroupNonModal:
		if code == 92 {
			in.setWorkOffset(cmd.Params)
		}
	}
	return nil
}

func (in *Interpreter) executeM(cmd gcode.Command) {
	switch cmd.Code {
	case 3:
		in.spindleOn(cmd, machine.CW)
	case 4:
		in.spindleOn(cmd, machine.CCW)
	case 5:
		in.state.SpindleSpeed = 0
		in.state.SpindleDir = machine.Stopped
		if in.adapter != nil {
			in.adapterErr(cmd.Line, in.adapter.StopSpindle())
		}
	case 8, 9:
		in.state.Coolant = cmd.Code == 8
		if in.adapter != nil {
			in.adapterErr(cmd.Line, in.adapter.SetCoolant(in.state.Coolant))
		}
	case 2, 30:
		in.log.WithField("line", cmd.Line).Info("program end")
	}
}

func (in *Interpreter) spindleOn(cmd gcode.Command, dir machine.Direction) {
	in.state.SpindleSpeed = cmd.Params.Or('S', in.state.SpindleSpeed)
	in.state.SpindleDir = dir
	if in.adapter != nil {
		in.adapterErr(cmd.Line, in.adapter.SetSpindleSpeed(in.state.SpindleSpeed, dir))
	}
}

// endPosition applies the positioning mode to the axis parameters of p.
func (in *Interpreter) endPosition(p gcode.Params) coord.Point {
	end := in.state.Position
	for _, a := range coord.Axes {
		v, ok := p.Get(byte(a))
		if !ok {
			continue
		}
		if in.state.RelativeMotion() {
			v += end.Get(a)
		}
		end = end.With(a, v)
	}
	return end
}

func (in *Interpreter) newSegment(t SegmentType, line int) Segment {
	return Segment{
		Type:         t,
		Line:         line,
		Start:        in.state.Position,
		End:          in.state.Position,
		SpindleSpeed: in.state.SpindleSpeed,
		SpindleDir:   in.state.SpindleDir,
		Coolant:      in.state.Coolant,
		Tool:         in.state.CurrentTool,
	}
}

func (in *Interpreter) executeMotion(cmd gcode.Command, mode int) {
	if f, ok := cmd.Params.Get('F'); ok {
		in.state.Feedrate = f
	}

	var seg Segment
	switch mode {
	case 0:
		seg = in.newSegment(SegmentRapid, cmd.Line)
	case 1:
		seg = in.newSegment(SegmentLinear, cmd.Line)
		seg.Feedrate = in.state.Feedrate
	case 2, 3:
		t := SegmentArcCW
		if mode == 3 {
			t = SegmentArcCCW
		}
		seg = in.newSegment(t, cmd.Line)
		seg.Feedrate = in.state.Feedrate
		seg.Arc = &ArcParams{
			Center: ArcOffset{
				I: cmd.Params.Or('I', 0),
				J: cmd.Params.Or('J', 0),
				K: cmd.Params.Or('K', 0),
			},
			Radius: cmd.Params.Or('R', 0),
			Plane:  in.state.Plane,
		}
	default:
		return
	}
	seg.End = in.endPosition(cmd.Params)

	in.toolpath = append(in.toolpath, seg)
	in.state.Position = seg.End
	in.forward(cmd.Line, seg.End, mode == 0)
}

func (in *Interpreter) executeCannedCycle(cmd gcode.Command) error {
	depth, okZ := cmd.Params.Get('Z')
	retract, okR := cmd.Params.Get('R')
	if !okZ || !okR {
		return ErrCannedCycleParams
	}
	if f, ok := cmd.Params.Get('F'); ok {
		in.state.Feedrate = f
	}

	seg := in.newSegment(SegmentDrill, cmd.Line)
	seg.Feedrate = in.state.Feedrate
	seg.Drill = &DrillParams{
		Cycle: int(cmd.Code),
		Position: HolePosition{
			X: cmd.Params.Or('X', in.state.Position.X),
			Y: cmd.Params.Or('Y', in.state.Position.Y),
		},
		Depth:   depth,
		Retract: retract,
	}
	in.toolpath = append(in.toolpath, seg)
	return nil
}

func (in *Interpreter) setWorkOffset(p gcode.Params) {
	for _, a := range []coord.Axis{coord.AxisX, coord.AxisY, coord.AxisZ} {
		if v, ok := p.Get(byte(a)); ok {
			in.state.WorkOffset = in.state.WorkOffset.With(a, in.state.Position.Get(a)-v)
		}
	}
}

func (in *Interpreter) forward(line int, end coord.Point, rapid bool) {
	if in.adapter == nil {
		return
	}
	for _, a := range coord.Axes {
		_, err := in.adapter.MoveAxis(a, end.Get(a), rapid)
		in.adapterErr(line, err)
	}
}

func (in *Interpreter) adapterErr(line int, err error) {
	if err == nil {
		return
	}
	in.log.WithField("line", line).WithError(err).Warn("machine adapter")
}

// Interpolate returns the path of s as a polyline that begins at s.Start.
// Arcs are split into chords of at most maxLen.
func Interpolate(s Segment, maxLen float64) ([]coord.Point, error) {
	pts, err := s.Points(maxLen)
	if err != nil {
		return nil, err
	}
	return append([]coord.Point{s.Start}, pts...), nil
}
