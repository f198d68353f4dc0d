package gcode

import "strings"

// Block is every word found on one line, in source order.
type Block []Word

func (b Block) Arg(w byte) (bool, float64) {
	for _, g := range b {
		if g.W == w {
			return true, g.Arg
		}
	}
	return false, 0
}

// Commands returns the G, M and T words of the block.
func (b Block) Commands() Block {
	res := make(Block, 0, len(b))
	for _, g := range b {
		if g.IsCommand() {
			res = append(res, g)
		}
	}
	return res
}

// String formats the block compactly, e.g. "G1X10Y-2.5F200".
func (b Block) String() string {
	var sb strings.Builder
	for _, w := range b {
		sb.WriteString(w.String())
	}
	return sb.String()
}
