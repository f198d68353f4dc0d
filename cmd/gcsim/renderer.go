package main

import (
	"encoding/json"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/vm"
	"github.com/sirupsen/logrus"
)

const (
	channelToolpath = "/events/toolpath"
	channelSegment  = "/events/segment"
	channelState    = "/events/state"
)

type messageSender interface {
	SendMessage(channel string, message *sse.Message)
}

// sseRenderer publishes playback to browsers as server-sent events.
type sseRenderer struct {
	sse messageSender
	log logrus.FieldLogger
}

func (r *sseRenderer) send(channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.WithError(err).Error("marshal event")
		return
	}
	r.sse.SendMessage(channel, sse.SimpleMessage(string(data)))
}

func (r *sseRenderer) SetToolpath(segments []vm.Segment) { r.send(channelToolpath, segments) }
func (r *sseRenderer) SetCurrentSegment(index int)       { r.send(channelSegment, index) }

// forwardState publishes every state change of rep until states closes.
func (r *sseRenderer) forwardState(rep machine.Reporter) {
	for state := range rep.State() {
		r.send(channelState, state)
	}
}
