package coord

import (
	"errors"
	"math"
)

// PlaneSelect is the active arc plane, numbered after the G-code that selects it.
type PlaneSelect int

const (
	PlaneXY PlaneSelect = 17
	PlaneZX PlaneSelect = 18
	PlaneYZ PlaneSelect = 19
)

// DefaultArcResolution is the chord length used when Points is given none.
const DefaultArcResolution = 0.5

const arcEpsilon = 1e-9

// MinResolution is the smallest chord or split length accepted from users.
const MinResolution = 1e-3

// MaxArcPoints bounds the number of chords Points will produce.
const MaxArcPoints = 100000

var (
	ErrArcResolution = errors.New("arc resolution too fine")
	ErrArcRadius     = errors.New("arc radius too small to reach end point")
	ErrArcEndpoint   = errors.New("radius-format arc needs distinct start and end points")
	ErrArcCenter     = errors.New("arc center coincides with start point")
)

// axes returns the two in-plane axes (ordered so that positive rotation
// is counter-clockwise) and the axis normal to the plane.
func (s PlaneSelect) axes() (u, v, w Axis) {
	switch s {
	case PlaneZX:
		return AxisZ, AxisX, AxisY
	case PlaneYZ:
		return AxisY, AxisZ, AxisX
	}
	return AxisX, AxisY, AxisZ
}

// Arc is a circular (or helical) move in one of the three planes.
//
// Center holds the I/J/K offsets from Start in its X/Y/Z fields. If Radius is
// non-zero the arc is in radius format and Center is ignored; a negative
// radius selects the arc longer than 180 degrees.
type Arc struct {
	Start, End Point
	Center     Point
	Radius     float64
	Plane      PlaneSelect
	Clockwise  bool
}

type arcGeometry struct {
	u, v, w Axis
	center  vec2
	radius  float64
	start   float64 // angle of Start around center
	sweep   float64 // signed, negative for clockwise
}

func (a Arc) geometry() (*arcGeometry, error) {
	g := &arcGeometry{}
	g.u, g.v, g.w = a.Plane.axes()

	s := vec2{a.Start.Get(g.u), a.Start.Get(g.v)}
	e := vec2{a.End.Get(g.u), a.End.Get(g.v)}

	if a.Radius != 0 {
		x, y := e.x-s.x, e.y-s.y
		d := math.Hypot(x, y)
		if d < arcEpsilon {
			return nil, ErrArcEndpoint
		}
		r := a.Radius
		h := 4*r*r - x*x - y*y
		if h < 0 {
			if h < -arcEpsilon {
				return nil, ErrArcRadius
			}
			h = 0
		}
		hd := -math.Sqrt(h) / d
		if !a.Clockwise {
			hd = -hd
		}
		if r < 0 {
			hd = -hd
		}
		g.center = vec2{s.x + 0.5*(x-y*hd), s.y + 0.5*(y+x*hd)}
	} else {
		g.center = vec2{s.x + a.Center.Get(g.u), s.y + a.Center.Get(g.v)}
	}

	r0 := vec2{s.x - g.center.x, s.y - g.center.y}
	r1 := vec2{e.x - g.center.x, e.y - g.center.y}
	g.radius = math.Hypot(r0.x, r0.y)
	if g.radius < arcEpsilon {
		return nil, ErrArcCenter
	}
	g.start = math.Atan2(r0.y, r0.x)
	g.sweep = math.Atan2(r0.x*r1.y-r0.y*r1.x, r0.x*r1.x+r0.y*r1.y)
	if a.Clockwise {
		if g.sweep >= -arcEpsilon {
			g.sweep -= 2 * math.Pi
		}
	} else if g.sweep <= arcEpsilon {
		g.sweep += 2 * math.Pi
	}

	return g, nil
}

// CenterPoint returns the absolute position of the arc center.
func (a Arc) CenterPoint() (Point, error) {
	g, err := a.geometry()
	if err != nil {
		return Point{}, err
	}
	return a.Start.With(g.u, g.center.x).With(g.v, g.center.y), nil
}

// Length returns the path length, including any helical travel.
func (a Arc) Length() (float64, error) {
	g, err := a.geometry()
	if err != nil {
		return 0, err
	}
	return math.Hypot(g.radius*math.Abs(g.sweep), a.End.Get(g.w)-a.Start.Get(g.w)), nil
}

// Points interpolates the arc into chords no longer than maxLen. The first
// point returned follows Start; the last is End exactly. Rotary and normal
// axes move linearly with the angle. More than MaxArcPoints chords is
// ErrArcResolution.
func (a Arc) Points(maxLen float64) ([]Point, error) {
	g, err := a.geometry()
	if err != nil {
		return nil, err
	}
	if maxLen <= 0 {
		maxLen = DefaultArcResolution
	}

	f := math.Ceil(math.Abs(g.sweep) * g.radius / maxLen)
	if f > MaxArcPoints || math.IsNaN(f) {
		return nil, ErrArcResolution
	}
	n := int(f)
	if n < 1 {
		n = 1
	}
	res := make([]Point, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		theta := g.start + g.sweep*t
		res[i-1] = a.Start.Lerp(a.End, t).
			With(g.u, g.center.x+g.radius*math.Cos(theta)).
			With(g.v, g.center.y+g.radius*math.Sin(theta))
	}
	res[n-1] = a.End

	return res, nil
}
