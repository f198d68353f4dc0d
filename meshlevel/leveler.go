package meshlevel

import (
	"errors"
	"math"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/vm"
)

// Leveler follows a probed surface by adding its height to the Z of every
// toolpath point. Moves are split so that no piece is longer than
// Granularity in XY; arcs become chords of that length.
//
// Points outside the surface are left unchanged.
type Leveler struct {
	Offsetter   ZOffsetter
	Granularity float64
}

func (l Leveler) level(p coord.Point) coord.Point {
	if ok, dz := l.Offsetter.OffsetZ(p.X, p.Y); ok {
		p.Z += dz
	}
	return p
}

// Level returns a new toolpath; path is not modified.
func (l Leveler) Level(path []vm.Segment) []vm.Segment {
	if l.Offsetter == nil {
		return path
	}
	res := make([]vm.Segment, 0, len(path))
	for _, s := range path {
		switch {
		case s.Type == vm.SegmentDrill:
			res = append(res, l.levelDrill(s))
		case s.IsArc():
			res = append(res, l.levelArc(s)...)
		default:
			res = append(res, l.levelLine(s)...)
		}
	}
	return res
}

func (l Leveler) pieces(from, to coord.Point) int {
	if l.Granularity <= 0 {
		return 1
	}
	dist := from.DistanceXY(to.X, to.Y)
	if dist <= l.Granularity {
		return 1
	}
	n := math.Ceil(dist / l.Granularity)
	if n > coord.MaxArcPoints {
		return coord.MaxArcPoints
	}
	return int(n)
}

func (l Leveler) chain(s vm.Segment, points []coord.Point) []vm.Segment {
	res := make([]vm.Segment, len(points))
	start := s.Start
	for i, p := range points {
		seg := s
		seg.Start = l.level(start)
		seg.End = l.level(p)
		res[i] = seg
		start = p
	}
	return res
}

func (l Leveler) levelLine(s vm.Segment) []vm.Segment {
	return l.chain(s, s.Start.Split(s.End, l.pieces(s.Start, s.End)))
}

func (l Leveler) levelArc(s vm.Segment) []vm.Segment {
	pts, err := s.Points(l.Granularity)
	if errors.Is(err, coord.ErrArcResolution) {
		pts, err = s.Points(s.Length() / (coord.MaxArcPoints - 1))
	}
	if err != nil {
		// not drawable as an arc; level it as the chord
		s.Type = vm.SegmentLinear
		s.Arc = nil
		return l.levelLine(s)
	}
	s.Type = vm.SegmentLinear
	s.Arc = nil
	return l.chain(s, pts)
}

func (l Leveler) levelDrill(s vm.Segment) vm.Segment {
	s.Start = l.level(s.Start)
	s.End = l.level(s.End)
	if s.Drill == nil {
		return s
	}
	d := *s.Drill
	if ok, dz := l.Offsetter.OffsetZ(d.Position.X, d.Position.Y); ok {
		d.Depth += dz
		d.Retract += dz
	}
	s.Drill = &d
	return s
}
