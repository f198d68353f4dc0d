package gcode

import (
	"fmt"
	"math"
	"sort"
)

// LargeCoordinate is the magnitude above which an axis value is reported
// by Validate.
const LargeCoordinate = 1000

// Program is an ordered list of parsed commands.
type Program []Command

// Warning is a non-fatal finding from Validate.
type Warning struct {
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Statistics tallies commands by category.
type Statistics struct {
	TotalLines      int `json:"totalLines"`
	RapidMoves      int `json:"rapidMoves"`
	LinearMoves     int `json:"linearMoves"`
	ArcMoves        int `json:"arcMoves"`
	ToolChanges     int `json:"toolChanges"`
	SpindleCommands int `json:"spindleCommands"`
	ModalCommands   int `json:"modalCommands"`
}

func (p Program) ByKind(k Kind) Program {
	var res Program
	for _, c := range p {
		if c.Kind == k {
			res = append(res, c)
		}
	}
	return res
}

// MotionCommands returns the explicit G0-G3 commands.
func (p Program) MotionCommands() Program {
	var res Program
	for _, c := range p {
		if c.Kind == KindG && (c.Code == 0 || c.Code == 1 || c.Code == 2 || c.Code == 3) {
			res = append(res, c)
		}
	}
	return res
}

var validateAxes = [...]byte{'X', 'Y', 'Z', 'A', 'B'}

// Validate scans the program for suspicious but legal content.
func (p Program) Validate() []Warning {
	var res []Warning
	warn := func(line int, format string, args ...interface{}) {
		res = append(res, Warning{Line: line, Message: fmt.Sprintf(format, args...), Severity: "warning"})
	}

	for _, c := range p {
		for _, a := range validateAxes {
			if v, ok := c.Params[a]; ok && math.Abs(v) > LargeCoordinate {
				warn(c.Line, "Large %c coordinate: %s", a, formatFloat(v, 4))
			}
		}
	}

	var spindleOn bool
	for _, c := range p {
		switch {
		case c.Is(KindM, 3), c.Is(KindM, 4):
			spindleOn = true
		case c.Is(KindM, 5):
			spindleOn = false
		case c.Is(KindG, 0) && spindleOn:
			warn(c.Line, "Rapid move (G0) with spindle running")
		}
	}

	for _, c := range p {
		cmds := c.Words.Commands()
		for _, w := range cmds[:max(len(cmds)-1, 0)] {
			warn(c.Line, "%s ignored: only the last command word (%s) on a line is executed", w, c.Word())
		}
	}

	sort.SliceStable(res, func(i, j int) bool { return res[i].Line < res[j].Line })
	return res
}

func (p Program) Statistics() Statistics {
	s := Statistics{TotalLines: len(p)}
	for _, c := range p {
		switch c.Kind {
		case KindG:
			switch c.Code {
			case 0:
				s.RapidMoves++
			case 1:
				s.LinearMoves++
			case 2, 3:
				s.ArcMoves++
			}
		case KindM:
			switch c.Code {
			case 3, 4, 5:
				s.SpindleCommands++
			}
		case KindT:
			s.ToolChanges++
		case KindModal:
			s.ModalCommands++
		}
	}
	return s
}
