package program

import "fmt"

// PlaybackState is the sequencer's playback mode.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StateRunning
	StatePaused
	StateStopped
)

var stateNames = [...]string{"idle", "running", "paused", "stopped"}

func (s PlaybackState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
	return stateNames[s]
}

func (s PlaybackState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
