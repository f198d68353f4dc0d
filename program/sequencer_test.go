package program

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/vm"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario = "G21 G90\nG0 X0 Y0 Z10\nG1 Z-5 F200\nG1 X10\nG0 Z10\nM30"

type fakeMachine struct {
	calls []string
	pos   coord.Point
}

func (m *fakeMachine) MoveAxis(a coord.Axis, target float64, rapid bool) (float64, error) {
	if m.pos.Get(a) != target {
		m.calls = append(m.calls, fmt.Sprintf("move %s%g %t", a, target, rapid))
	}
	m.pos = m.pos.With(a, target)
	return target, nil
}
func (m *fakeMachine) SetSpindleSpeed(rpm float64, dir machine.Direction) error {
	m.calls = append(m.calls, fmt.Sprintf("spindle %g %s", rpm, dir))
	return nil
}
func (m *fakeMachine) StopSpindle() error {
	m.calls = append(m.calls, "spindle stop")
	return nil
}
func (m *fakeMachine) SetCoolant(on bool) error {
	m.calls = append(m.calls, fmt.Sprintf("coolant %t", on))
	return nil
}
func (m *fakeMachine) CurrentPosition() coord.Point { return m.pos }

type fakeRenderer struct {
	toolpath []vm.Segment
	current  []int
}

func (r *fakeRenderer) SetToolpath(s []vm.Segment) { r.toolpath = s }
func (r *fakeRenderer) SetCurrentSegment(i int)    { r.current = append(r.current, i) }

func newTestSequencer(t *testing.T) (*Sequencer, *fakeMachine, *fakeRenderer) {
	log, _ := logtest.NewNullLogger()
	m := &fakeMachine{}
	r := &fakeRenderer{}
	return New(WithMachine(m), WithRenderer(r), WithLogger(log)), m, r
}

func TestSequencer_NothingLoaded(t *testing.T) {
	s, m, _ := newTestSequencer(t)

	assert.False(t, s.Start())
	assert.False(t, s.Pause())
	assert.False(t, s.Resume())
	assert.False(t, s.Stop())
	assert.False(t, s.StepForward())
	assert.False(t, s.StepBackward())
	_, ok := s.Info()
	assert.False(t, ok)
	assert.Nil(t, s.Toolpath())

	s.Update(time.Second)
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, m.calls)
}

func TestSequencer_Load(t *testing.T) {
	s, _, r := newTestSequencer(t)

	res := s.Load(scenario)
	require.True(t, res.Success)
	assert.Equal(t, 4, res.SegmentCount)
	assert.Equal(t, 2, res.Stats.RapidMoves)
	assert.Empty(t, res.RuntimeErrors)
	require.Len(t, res.Warnings, 1, "G21 is dropped in favor of G90")

	assert.Len(t, r.toolpath, 4)
	assert.Equal(t, 200.0, s.Toolpath()[1].Feedrate)

	info, ok := s.Info()
	require.True(t, ok)
	assert.Equal(t, 4, info.TotalSegments)
	assert.Zero(t, info.Progress)
	assert.Equal(t, StateIdle, info.State)
}

func TestSequencer_LoadParseError(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	require.True(t, s.Load(scenario).Success)

	res := s.Load("G0 X1\nG1 X1" + strings.Repeat("0", 400))
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Line)

	assert.Len(t, s.Toolpath(), 4, "previous program kept")
}

func TestSequencer_RuntimeErrorsDoNotFailLoad(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	res := s.Load("G0 X1\nG81 X0 Y0 Z-10\nG0 X2")
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.SegmentCount)
	require.Len(t, res.RuntimeErrors, 1)
	assert.Equal(t, 2, res.RuntimeErrors[0].Line)
	assert.Len(t, s.Program().Errors, 1)
}

func TestSequencer_StepThrough(t *testing.T) {
	s, m, r := newTestSequencer(t)
	require.True(t, s.Load(scenario).Success)
	require.True(t, s.Start())

	for i := 0; i < 4; i++ {
		require.True(t, s.StepForward(), "step %d", i)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, r.current)
	info, _ := s.Info()
	assert.Equal(t, 1.0, info.Progress)

	assert.Equal(t, []string{
		"spindle stop",
		"coolant false",
		"move z10 true",
		"move z-5 false",
		"move x10 false",
		"move z10 true",
	}, m.calls)

	m.calls = nil
	assert.False(t, s.StepForward())
	assert.Equal(t, []string{"spindle stop"}, m.calls)
	assert.Equal(t, StateStopped, s.State())
	info, _ = s.Info()
	assert.Zero(t, info.CurrentSegment)
	assert.False(t, info.IsRunning)
}

func TestSequencer_StepBackward(t *testing.T) {
	s, m, r := newTestSequencer(t)
	require.True(t, s.Load(scenario).Success)
	assert.False(t, s.StepBackward())

	s.StepForward()
	s.StepForward()
	calls := len(m.calls)

	assert.True(t, s.StepBackward())
	assert.Equal(t, []int{0, 1, 1}, r.current)
	assert.Len(t, m.calls, calls, "rewinding does not move the machine")
	info, _ := s.Info()
	assert.Equal(t, 1, info.CurrentSegment)
}

func TestSequencer_PauseResume(t *testing.T) {
	s, m, _ := newTestSequencer(t)
	require.True(t, s.Load(scenario).Success)

	assert.False(t, s.Pause(), "not running")
	require.True(t, s.Start())
	require.True(t, s.StepForward())

	assert.True(t, s.Pause())
	assert.False(t, s.Pause())
	info, _ := s.Info()
	assert.True(t, info.IsPaused)
	assert.True(t, info.IsRunning)
	assert.Equal(t, 1, info.CurrentSegment)

	calls := len(m.calls)
	s.Update(time.Hour)
	assert.Len(t, m.calls, calls, "no progress while paused")

	assert.True(t, s.Resume())
	assert.False(t, s.Resume())
	info, _ = s.Info()
	assert.Equal(t, 1, info.CurrentSegment, "resume keeps the cursor")
}

func TestSequencer_Update(t *testing.T) {
	s, _, r := newTestSequencer(t)
	// 10mm at 600mm/min takes one second
	require.True(t, s.Load("G1 X10 F600\nG1 X20\nG1 X30").Success)

	s.Update(time.Hour)
	assert.Empty(t, r.current, "idle programs do not advance")

	require.True(t, s.Start())
	s.Update(600 * time.Millisecond)
	assert.Empty(t, r.current)
	s.Update(400 * time.Millisecond)
	assert.Equal(t, []int{0}, r.current)

	assert.Equal(t, 2.0, s.SetPlaybackSpeed(2))
	s.Update(500 * time.Millisecond)
	assert.Equal(t, []int{0, 1}, r.current)

	// a long delta steps each remaining segment once, then stops
	s.Update(time.Minute)
	assert.Equal(t, []int{0, 1, 2}, r.current)
	assert.Equal(t, StateStopped, s.State())
}

func TestSequencer_UpdateRapids(t *testing.T) {
	s, _, r := newTestSequencer(t)
	require.True(t, s.Load("G0 X254").Success)
	require.True(t, s.Start())

	s.Update(500 * time.Millisecond)
	assert.Empty(t, r.current)
	s.Update(100 * time.Millisecond)
	assert.Equal(t, []int{0}, r.current, "254mm at 25400mm/min is 0.6s")
}

func TestSequencer_Duration(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	s := New(WithLogger(log), WithRapidRate(1270))
	assert.Zero(t, s.Duration())

	require.True(t, s.Load("G0 X127\nG1 Y10 F600").Success)
	assert.InDelta(t, float64(7*time.Second), float64(s.Duration()), float64(time.Millisecond))
}

func TestSequencer_SetPlaybackSpeed(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	assert.Equal(t, 0.1, s.SetPlaybackSpeed(0))
	assert.Equal(t, 10.0, s.SetPlaybackSpeed(50))
	assert.Equal(t, 2.5, s.SetPlaybackSpeed(2.5))
}

func TestSequencer_PlayerSpindleAndDrill(t *testing.T) {
	s, m, _ := newTestSequencer(t)
	require.True(t, s.Load("M3 S1000\nM8\nG0 X5 Y5 Z5\nG81 X10 Z-2 R1 F100").Success)
	s.StepForward()
	s.StepForward()

	assert.Equal(t, []string{
		"spindle 1000 cw",
		"coolant true",
		"move x5 true", "move y5 true", "move z5 true",
		"move x10 true", "move z1 true",
		"move z-2 false",
		"move z1 true",
	}, m.calls)
}

type doubler struct{}

func (doubler) Level(path []vm.Segment) []vm.Segment { return append(path, path...) }

func TestSequencer_Leveler(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	s := New(WithLeveler(doubler{}), WithLogger(log))
	assert.Equal(t, 8, s.Load(scenario).SegmentCount)
}

func TestSamples(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	for _, name := range SampleNames() {
		res := s.LoadSample(name)
		assert.True(t, res.Success, name)
		assert.NotZero(t, res.SegmentCount, name)
		assert.Empty(t, res.RuntimeErrors, name)
	}
	assert.Len(t, SampleNames(), 5)
	assert.Equal(t, Sample("simple_pocket"), Sample("nope"))

	res := s.LoadSample("drilling_pattern")
	assert.Equal(t, 1, countType(s.Toolpath(), vm.SegmentDrill), "modal lines after G81 are plain moves")
	assert.Equal(t, 6, res.SegmentCount)
}

func countType(path []vm.Segment, t vm.SegmentType) int {
	n := 0
	for _, s := range path {
		if s.Type == t {
			n++
		}
	}
	return n
}

func TestInfo_JSON(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	s.Load(scenario)
	s.Start()
	info, _ := s.Info()

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"running"`)
	assert.Contains(t, string(data), `"totalSegments":4`)
}
