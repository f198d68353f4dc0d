package gcode

import (
	"errors"
	"io"
	"strings"
)

// ParseResult holds every command read from a program along with the
// lines that failed. Commands are in program (execution) order.
type ParseResult struct {
	Commands Program      `json:"commands"`
	Errors   []ParseError `json:"errors"`
}

// Success is true iff no line failed to parse.
func (r ParseResult) Success() bool { return len(r.Errors) == 0 }

// Parse reads a whole program. It never fails outright: bad lines are
// recorded in Errors and parsing continues with the next line.
func Parse(data string) ParseResult {
	var res ParseResult
	p := NewParser(strings.NewReader(data))
	for {
		cmd, err := p.Next()
		if err == io.EOF {
			break
		}
		var pe *ParseError
		if errors.As(err, &pe) {
			res.Errors = append(res.Errors, *pe)
			continue
		}
		if err != nil {
			// strings.Reader only ever returns io.EOF
			res.Errors = append(res.Errors, ParseError{Line: p.Line(), Message: err.Error()})
			break
		}
		res.Commands = append(res.Commands, *cmd)
	}
	return res
}

// MustParse is like Parse but panics if any line fails.
func MustParse(data string) Program {
	res := Parse(data)
	if !res.Success() {
		panic(&res.Errors[0])
	}
	return res.Commands
}
