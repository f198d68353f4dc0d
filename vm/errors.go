package vm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCannedCycleParams is returned for a G81-G89 line without Z or R.
var ErrCannedCycleParams = errors.New("canned cycle requires Z (depth) and R (retract) parameters")

// CommandError is a command that could not be executed. Interpretation
// continues past it.
type CommandError struct {
	Line   int
	Source string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Line    int    `json:"line"`
		Source  string `json:"source"`
		Message string `json:"message"`
	}{e.Line, e.Source, e.Err.Error()})
}
