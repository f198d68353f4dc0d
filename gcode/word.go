package gcode

import (
	"strconv"
	"strings"
)

// Word is a single letter/number token of a line, like G1 or X-2.5.
type Word struct {
	W   byte
	Arg float64
}

// IsCommand reports whether the word selects a command (G, M or T) rather
// than supplying a parameter.
func (w Word) IsCommand() bool {
	switch w.W {
	case 'G', 'M', 'T':
		return true
	}
	return false
}

func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func (w Word) String() string {
	return string(w.W) + formatFloat(w.Arg, 4)
}
