package meshlevel

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mastercactapus/gcsim/coord"
)

type ZOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

// OffsetFrom shifts every point down by z, so a surface probed at height
// z becomes relative to zero.
func OffsetFrom(z float64, points []coord.Point) []coord.Point {
	p := make([]coord.Point, len(points))
	copy(p, points)

	for i := range p {
		p[i].Z -= z
	}
	return p
}

// ReadPoints decodes a JSON array of probe points, e.g.
// [{"x":0,"y":0,"z":-0.1}, ...].
func ReadPoints(r io.Reader) ([]coord.Point, error) {
	var points []coord.Point
	if err := json.NewDecoder(r).Decode(&points); err != nil {
		return nil, fmt.Errorf("decode probe points: %w", err)
	}
	return points, nil
}
