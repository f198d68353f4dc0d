package machine

import (
	"github.com/mastercactapus/gcsim/coord"
)

// State is a snapshot of what a machine reports about itself.
type State struct {
	Status     string      `json:"status"`
	Position   coord.Point `json:"position"`
	SpindleRPM float64     `json:"spindleRpm"`
	SpindleDir Direction   `json:"spindleDir"`
	Coolant    bool        `json:"coolant"`
}

// A Reporter can describe its current state and publish changes.
type Reporter interface {
	CurrentState() State

	// State returns a channel that receives a snapshot after every
	// change. Sends never block; slow readers miss updates.
	State() chan State
}

// Snapshot returns the state of a, using CurrentPosition when a does not
// implement Reporter.
func Snapshot(a Adapter) State {
	if r, ok := a.(Reporter); ok {
		return r.CurrentState()
	}
	return State{Status: "Unknown", Position: a.CurrentPosition()}
}
