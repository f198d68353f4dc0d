package sim

import (
	"strings"
	"testing"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_MoveAxis(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	m := New(DefaultProfile(), log)
	assert.Equal(t, coord.Point{Z: 100}, m.CurrentPosition())

	check := func(a coord.Axis, target, exp float64) {
		t.Helper()
		v, err := m.MoveAxis(a, target, false)
		require.NoError(t, err)
		assert.Equal(t, exp, v, "%s%g", a, target)
		assert.Equal(t, exp, m.CurrentPosition().Get(a))
	}

	check(coord.AxisX, 100, 100)
	check(coord.AxisX, 700, 600)
	check(coord.AxisX, -700, -600)
	check(coord.AxisY, 401, 400)
	check(coord.AxisZ, -500, -400)
	check(coord.AxisA, 120, 110)
	check(coord.AxisA, -120, -110)
	check(coord.AxisB, 370, 10)
	check(coord.AxisB, -450, -90)

	assert.Len(t, hook.Entries, 6)
}

func TestMachine_Spindle(t *testing.T) {
	m := New(DefaultProfile(), nil)
	require.NoError(t, m.SetSpindleSpeed(20000, machine.CW))

	s := m.CurrentState()
	assert.Equal(t, 12000.0, s.SpindleRPM)
	assert.Equal(t, machine.CW, s.SpindleDir)
	assert.Equal(t, StatusRun, s.Status)

	require.NoError(t, m.StopSpindle())
	s = m.CurrentState()
	assert.Zero(t, s.SpindleRPM)
	assert.Equal(t, StatusIdle, s.Status)
}

func TestMachine_EmergencyStop(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	m := New(DefaultProfile(), log)
	require.NoError(t, m.SetSpindleSpeed(1000, machine.CCW))
	require.NoError(t, m.SetCoolant(true))

	m.EmergencyStop()
	s := m.CurrentState()
	assert.Equal(t, StatusAlarm, s.Status)
	assert.Zero(t, s.SpindleRPM)
	assert.False(t, s.Coolant)

	_, err := m.MoveAxis(coord.AxisX, 5, true)
	assert.Equal(t, ErrEmergencyStop, err)
	assert.Equal(t, ErrEmergencyStop, m.SetSpindleSpeed(10, machine.CW))
	assert.NoError(t, m.SetCoolant(false))

	m.Reset()
	_, err = m.MoveAxis(coord.AxisX, 5, true)
	assert.NoError(t, err)
}

func TestReadProfile(t *testing.T) {
	p, err := ReadProfile(strings.NewReader(`
name: router
xTravel: 600
maxSpindleSpeed: 24000
home: {x: 0, y: 0, z: 50}
`))
	require.NoError(t, err)
	assert.Equal(t, "router", p.Name)
	assert.Equal(t, 600.0, p.XTravel)
	assert.Equal(t, 800.0, p.YTravel, "defaults kept")
	assert.Equal(t, 24000.0, p.MaxSpindleSpeed)
	assert.Equal(t, coord.Point{Z: 50}, p.Home)

	_, err = ReadProfile(strings.NewReader("xTravel: -1"))
	assert.ErrorIs(t, err, errProfileTravel)

	_, err = ReadProfile(strings.NewReader("bogus: 1"))
	assert.Error(t, err)

	p, err = ReadProfile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
}
