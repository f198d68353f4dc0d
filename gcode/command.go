package gcode

import (
	"encoding/json"
	"sort"
)

// Kind classifies a parsed line.
type Kind string

const (
	KindG Kind = "G"
	KindM Kind = "M"
	KindT Kind = "T"

	// KindModal is a parameter-only line; it repeats the active motion mode.
	KindModal Kind = "MODAL"
)

// Params maps an upper-case parameter letter to its value.
type Params map[byte]float64

func (p Params) Get(letter byte) (float64, bool) {
	v, ok := p[letter]
	return v, ok
}

// Or returns the parameter value, or def when the letter is absent.
func (p Params) Or(letter byte, def float64) float64 {
	if v, ok := p[letter]; ok {
		return v
	}
	return def
}

// Block returns the parameters as words in letter order.
func (p Params) Block() Block {
	b := make(Block, 0, len(p))
	for l, v := range p {
		b = append(b, Word{W: l, Arg: v})
	}
	sort.Slice(b, func(i, j int) bool { return b[i].W < b[j].W })
	return b
}

func (p Params) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, len(p))
	for l, v := range p {
		m[string(l)] = v
	}
	return json.Marshal(m)
}

// Command is one parsed instruction line. It is never modified after parsing.
type Command struct {
	Kind Kind `json:"kind"`

	// Code is the number of the G, M or T word; unused for KindModal.
	Code   float64 `json:"code"`
	Params Params  `json:"params"`

	Line   int    `json:"line"`
	Source string `json:"source"`

	// Words holds every token of the line, including command words
	// that lost to a later one.
	Words Block `json:"-"`
}

// Word returns the command word itself (e.g. G1).
func (c Command) Word() Word {
	if c.Kind == KindModal {
		return Word{}
	}
	return Word{W: c.Kind[0], Arg: c.Code}
}

// Is reports whether c is the given kind and code.
func (c Command) Is(k Kind, code float64) bool {
	return c.Kind == k && c.Code == code
}

func (c Command) String() string {
	b := c.Params.Block()
	if c.Kind != KindModal {
		b = append(Block{c.Word()}, b...)
	}
	return b.String()
}
