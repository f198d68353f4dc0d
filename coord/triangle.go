package coord

import (
	"math"
)

const (
	// Epsilon is the max error when checking containment.
	Epsilon   = 0.001
	epsilonSq = Epsilon * Epsilon
)

// Triangle is a facet of a probed surface.
type Triangle struct{ A, B, C Point }

// ContainsXY returns true if the 2D projection of the triangle
// has the point x,y (within Epsilon of an edge counts).
func (t Triangle) ContainsXY(x, y float64) bool {
	p := vec2{x, y}
	a, b, c := flat(t.A), flat(t.B), flat(t.C)

	lo := vec2{math.Min(a.x, math.Min(b.x, c.x)) - Epsilon, math.Min(a.y, math.Min(b.y, c.y)) - Epsilon}
	hi := vec2{math.Max(a.x, math.Max(b.x, c.x)) + Epsilon, math.Max(a.y, math.Max(b.y, c.y)) + Epsilon}
	if p.x < lo.x || hi.x < p.x || p.y < lo.y || hi.y < p.y {
		return false
	}

	if side(a, b, p) >= 0 && side(b, c, p) >= 0 && side(c, a, p) >= 0 {
		return true
	}
	// either winding
	if side(a, b, p) <= 0 && side(b, c, p) <= 0 && side(c, a, p) <= 0 {
		return true
	}

	return segmentDistSq(a, b, p) <= epsilonSq ||
		segmentDistSq(b, c, p) <= epsilonSq ||
		segmentDistSq(c, a, p) <= epsilonSq
}

// Z will give the Z-coordinate on the plane defined by the triangle
// where it intersects x,y.
func (t Triangle) Z(x, y float64) float64 {
	n := t.C.Sub(t.A).Cross(t.B.Sub(t.A))
	d := n.Dot(t.C)

	return (d - n.X*x - n.Y*y) / n.Z
}

// point-in-triangle with edge tolerance, after
// https://totologic.blogspot.com/2014/01/accurate-point-in-triangle-test.html

type vec2 struct{ x, y float64 }

func flat(p Point) vec2 { return vec2{p.X, p.Y} }

func side(a, b, p vec2) float64 {
	return (b.y-a.y)*(p.x-a.x) + (a.x-b.x)*(p.y-a.y)
}

func segmentDistSq(a, b, p vec2) float64 {
	lenSq := (b.x-a.x)*(b.x-a.x) + (b.y-a.y)*(b.y-a.y)
	t := ((p.x-a.x)*(b.x-a.x) + (p.y-a.y)*(b.y-a.y)) / lenSq
	switch {
	case t < 0:
		return (p.x-a.x)*(p.x-a.x) + (p.y-a.y)*(p.y-a.y)
	case t <= 1:
		return (a.x-p.x)*(a.x-p.x) + (a.y-p.y)*(a.y-p.y) - t*t*lenSq
	}
	return (p.x-b.x)*(p.x-b.x) + (p.y-b.y)*(p.y-b.y)
}
