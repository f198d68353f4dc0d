package meshlevel

import (
	"strings"
	"testing"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/gcode"
	"github.com/mastercactapus/gcsim/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probes indicate a rise
// of 30mm over 100mm or .3mmZ for every 1mm X
var risingProbes = []coord.Point{
	{X: -700, Y: -450, Z: -80},
	{X: -700, Y: -550, Z: -80},

	{X: -600, Y: -450, Z: -50},
	{X: -600, Y: -550, Z: -50},
}

func TestMesh_OffsetZ(t *testing.T) {
	mesh, err := NewMesh(risingProbes)
	require.NoError(t, err)

	ok, z := mesh.OffsetZ(-650, -500)
	assert.True(t, ok)
	assert.InDelta(t, -65, z, 1e-9)

	ok, z = mesh.OffsetZ(-600, -450)
	assert.True(t, ok)
	assert.InDelta(t, -50, z, 1e-9)

	ok, _ = mesh.OffsetZ(0, 0)
	assert.False(t, ok)

	_, err = NewMesh(risingProbes[:2])
	assert.Error(t, err)
}

func TestLeveler_Line(t *testing.T) {
	mesh, err := NewMesh(OffsetFrom(-65, risingProbes))
	require.NoError(t, err)

	l := Leveler{Offsetter: mesh, Granularity: 1}
	in := []vm.Segment{{
		Type:     vm.SegmentRapid,
		Line:     1,
		Start:    coord.Point{X: -650, Y: -500, Z: -60},
		End:      coord.Point{X: -647, Y: -500, Z: -60},
		Feedrate: 0,
	}}

	out := l.Level(in)
	require.Len(t, out, 3)
	assert.InDelta(t, -60, out[0].Start.Z, 1e-9)
	for i, s := range out {
		assert.Equal(t, vm.SegmentRapid, s.Type)
		assert.Equal(t, 1, s.Line)
		assert.InDelta(t, -650+float64(i+1), s.End.X, 1e-9)
		assert.InDelta(t, -60+0.3*float64(i+1), s.End.Z, 1e-9)
		if i > 0 {
			assert.Equal(t, out[i-1].End, s.Start, "pieces are continuous")
		}
	}

	assert.Equal(t, coord.Point{X: -647, Y: -500, Z: -60}, in[0].End, "input untouched")
}

func TestLeveler_OutsideMesh(t *testing.T) {
	mesh, err := NewMesh(risingProbes)
	require.NoError(t, err)

	seg := vm.Segment{Type: vm.SegmentLinear, End: coord.Point{X: 2, Z: -1}, Feedrate: 100}
	out := Leveler{Offsetter: mesh, Granularity: 1}.Level([]vm.Segment{seg})
	require.Len(t, out, 2)
	assert.Equal(t, coord.Point{X: 2, Z: -1}, out[1].End)
}

func TestLeveler_ArcAndDrill(t *testing.T) {
	flat := []coord.Point{{X: -100, Y: -100, Z: 1}, {X: 100, Y: -100, Z: 1}, {X: 0, Y: 100, Z: 1}}
	mesh, err := NewMesh(flat)
	require.NoError(t, err)

	path, errs := vm.New().Execute(gcode.MustParse("G3 X10 Y-10 I10 F100\nG81 X5 Y5 Z-2 R1"))
	require.Empty(t, errs)

	out := Leveler{Offsetter: mesh, Granularity: 2}.Level(path)
	require.Len(t, out, 9, "quarter arc of radius 10 is about 15.7mm")

	for _, s := range out[:8] {
		assert.Equal(t, vm.SegmentLinear, s.Type)
		assert.Nil(t, s.Arc)
		assert.InDelta(t, 1, s.End.Z, 1e-9)
		assert.Equal(t, 100.0, s.Feedrate)
	}
	assert.Equal(t, coord.Point{X: 10, Y: -10, Z: 1}, out[7].End)

	d := out[8]
	assert.Equal(t, vm.SegmentDrill, d.Type)
	assert.InDelta(t, -1, d.Drill.Depth, 1e-9)
	assert.InDelta(t, 2, d.Drill.Retract, 1e-9)
	assert.Equal(t, -2.0, path[1].Drill.Depth, "input untouched")
}

func TestReadPoints(t *testing.T) {
	pts, err := ReadPoints(strings.NewReader(`[{"x":1,"y":2,"z":-0.5},{"x":3,"y":4,"z":0}]`))
	require.NoError(t, err)
	assert.Equal(t, []coord.Point{{X: 1, Y: 2, Z: -0.5}, {X: 3, Y: 4}}, pts)

	_, err = ReadPoints(strings.NewReader(`{`))
	assert.Error(t, err)
}

type flatSurface struct{}

func (flatSurface) OffsetZ(x, y float64) (bool, float64) { return true, 0 }

func TestLeveler_TinyGranularity(t *testing.T) {
	l := Leveler{Offsetter: flatSurface{}, Granularity: 1e-9}

	out := l.Level([]vm.Segment{{Type: vm.SegmentLinear, End: coord.Point{X: 10}, Feedrate: 100}})
	assert.Len(t, out, coord.MaxArcPoints)
	assert.Equal(t, coord.Point{X: 10}, out[len(out)-1].End)

	arc := vm.Segment{
		Type:  vm.SegmentArcCCW,
		Start: coord.Point{X: 10},
		End:   coord.Point{Y: 10},
		Arc:   &vm.ArcParams{Center: vm.ArcOffset{I: -10}, Plane: coord.PlaneXY},
	}
	out = l.Level([]vm.Segment{arc})
	assert.LessOrEqual(t, len(out), coord.MaxArcPoints)
	assert.Greater(t, len(out), 1)
	assert.Equal(t, vm.SegmentLinear, out[0].Type)
	assert.Equal(t, arc.End, out[len(out)-1].End)
}
