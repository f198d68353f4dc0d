package vm

import (
	"math"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
)

// SegmentType discriminates the toolpath element.
type SegmentType string

const (
	SegmentRapid  SegmentType = "rapid"
	SegmentLinear SegmentType = "linear"
	SegmentArcCW  SegmentType = "arc_cw"
	SegmentArcCCW SegmentType = "arc_ccw"
	SegmentDrill  SegmentType = "drill"
)

// ArcOffset is the I/J/K center offset of an arc, relative to its start.
type ArcOffset struct {
	I float64 `json:"i"`
	J float64 `json:"j"`
	K float64 `json:"k"`
}

type ArcParams struct {
	Center ArcOffset `json:"center"`

	// Radius is set for R-format arcs, zero otherwise.
	Radius float64           `json:"radius,omitempty"`
	Plane  coord.PlaneSelect `json:"plane"`
}

type HolePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type DrillParams struct {
	Cycle    int          `json:"cycle"`
	Position HolePosition `json:"position"`
	Depth    float64      `json:"depth"`
	Retract  float64      `json:"retract"`
}

// Segment is one element of a toolpath. Segments are never modified
// once appended.
//
// Start and End are snapshots of the tool position. Feedrate is zero for
// rapid moves. Drill segments leave End equal to Start, since canned cycles
// do not move the tracked position.
type Segment struct {
	Type SegmentType `json:"type"`
	Line int         `json:"line"`

	Start coord.Point `json:"start"`
	End   coord.Point `json:"end"`

	Feedrate     float64           `json:"feedrate,omitempty"`
	SpindleSpeed float64           `json:"spindleSpeed"`
	SpindleDir   machine.Direction `json:"spindleDir"`
	Coolant      bool              `json:"coolant"`
	Tool         int               `json:"tool"`

	Arc   *ArcParams   `json:"arc,omitempty"`
	Drill *DrillParams `json:"drill,omitempty"`
}

func (s Segment) IsArc() bool { return s.Type == SegmentArcCW || s.Type == SegmentArcCCW }

// Geometry describes an arc segment for interpolation.
func (s Segment) Geometry() coord.Arc {
	a := coord.Arc{
		Start:     s.Start,
		End:       s.End,
		Clockwise: s.Type == SegmentArcCW,
		Plane:     coord.PlaneXY,
	}
	if s.Arc != nil {
		a.Center = coord.Point{X: s.Arc.Center.I, Y: s.Arc.Center.J, Z: s.Arc.Center.K}
		a.Radius = s.Arc.Radius
		a.Plane = s.Arc.Plane
	}
	return a
}

// Points returns the positions the tool passes through after Start, ending
// at the final position. Arcs are split into chords of at most maxLen;
// drills plunge from the retract height and come back up.
func (s Segment) Points(maxLen float64) ([]coord.Point, error) {
	switch {
	case s.IsArc():
		return s.Geometry().Points(maxLen)
	case s.Type == SegmentDrill && s.Drill != nil:
		hole := s.Start
		hole.X, hole.Y = s.Drill.Position.X, s.Drill.Position.Y
		return []coord.Point{
			hole.With(coord.AxisZ, s.Drill.Retract),
			hole.With(coord.AxisZ, s.Drill.Depth),
			hole.With(coord.AxisZ, s.Drill.Retract),
		}, nil
	}
	return []coord.Point{s.End}, nil
}

// Length is the distance travelled by the tool. Arcs whose geometry is
// invalid fall back to the chord.
func (s Segment) Length() float64 {
	if s.IsArc() {
		if l, err := s.Geometry().Length(); err == nil {
			return l
		}
	}
	if s.Type == SegmentDrill && s.Drill != nil {
		pts, _ := s.Points(0)
		return s.Start.Distance(pts[0]) + 2*math.Abs(s.Drill.Retract-s.Drill.Depth)
	}
	return s.Start.Distance(s.End)
}
