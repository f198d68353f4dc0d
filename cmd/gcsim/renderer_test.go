package main

import (
	"testing"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/vm"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	channel string
	msg     *sse.Message
}

type recordingSender struct{ events []recordedEvent }

func (r *recordingSender) SendMessage(channel string, m *sse.Message) {
	r.events = append(r.events, recordedEvent{channel, m})
}

type staticReporter struct{ ch chan machine.State }

func (s staticReporter) CurrentState() machine.State { return machine.State{} }
func (s staticReporter) State() chan machine.State   { return s.ch }

func TestSSERenderer(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	rec := &recordingSender{}
	r := &sseRenderer{sse: rec, log: log}

	r.SetToolpath([]vm.Segment{{Type: vm.SegmentLinear, Line: 3, End: coord.Point{X: 1}}})
	r.SetCurrentSegment(7)

	ch := make(chan machine.State, 2)
	ch <- machine.State{Status: "Idle"}
	ch <- machine.State{Status: "Run", SpindleRPM: 1000}
	close(ch)
	r.forwardState(staticReporter{ch})

	require.Len(t, rec.events, 4)
	assert.Equal(t, channelToolpath, rec.events[0].channel)
	assert.Equal(t, channelSegment, rec.events[1].channel)
	assert.Equal(t, channelState, rec.events[2].channel)
	assert.Equal(t, channelState, rec.events[3].channel)
}
