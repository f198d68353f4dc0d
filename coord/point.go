package coord

import (
	"math"
)

// Axis names one of the five machine axes.
type Axis byte

const (
	AxisX Axis = 'X'
	AxisY Axis = 'Y'
	AxisZ Axis = 'Z'
	AxisA Axis = 'A'
	AxisB Axis = 'B'
)

// Axes lists every axis in the order they are forwarded to a machine.
var Axes = [...]Axis{AxisX, AxisY, AxisZ, AxisA, AxisB}

// ParseAxis accepts an axis letter in either case.
func ParseAxis(s string) (Axis, bool) {
	if len(s) != 1 {
		return 0, false
	}
	a := Axis(s[0])
	if a >= 'a' && a <= 'z' {
		a -= 'a' - 'A'
	}
	switch a {
	case AxisX, AxisY, AxisZ, AxisA, AxisB:
		return a, true
	}
	return 0, false
}

func (a Axis) String() string { return string(rune(a) + 'a' - 'A') }

// Point is a tool-tip position. A and B are rotary axes in degrees;
// vector math (Cross, Dot, DistanceXY) only considers X, Y and Z.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func (p Point) Get(a Axis) float64 {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	case AxisZ:
		return p.Z
	case AxisA:
		return p.A
	case AxisB:
		return p.B
	}
	return 0
}

// With returns p with axis a set to val.
func (p Point) With(a Axis, val float64) Point {
	switch a {
	case AxisX:
		p.X = val
	case AxisY:
		p.Y = val
	case AxisZ:
		p.Z = val
	case AxisA:
		p.A = val
	case AxisB:
		p.B = val
	}
	return p
}

func (p Point) Equal(b Point) bool {
	return p == b
}
func (p Point) Cross(op Point) Point {
	return Point{
		X: p.Y*op.Z - p.Z*op.Y,
		Y: p.Z*op.X - p.X*op.Z,
		Z: p.X*op.Y - p.Y*op.X,
	}
}
func (p Point) Dot(op Point) float64 {
	return p.X*op.X + p.Y*op.Y + p.Z*op.Z
}
func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	p.A *= val
	p.B *= val
	return p
}

func (p Point) Div(val float64) Point {
	return p.Mul(1 / val)
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	p.A += target.A
	p.B += target.B
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	p.A -= target.A
	p.B -= target.B
	return p
}

// Lerp returns the point a fraction t of the way from p to target.
func (p Point) Lerp(target Point, t float64) Point {
	return p.Add(target.Sub(p).Mul(t))
}

// Split will return a set of evenly spaced points
// from p to the target. The last point is always target itself.
func (p Point) Split(target Point, n int) []Point {
	res := make([]Point, n)
	for i := range res {
		res[i] = p.Lerp(target, float64(i+1)/float64(n))
	}
	if n > 0 {
		res[n-1] = target
	}
	return res
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Hypot(x-p.X, y-p.Y)
}

// Distance returns the straight-line XYZ distance between p and target.
func (p Point) Distance(target Point) float64 {
	d := target.Sub(p)
	return math.Sqrt(d.Dot(d))
}
