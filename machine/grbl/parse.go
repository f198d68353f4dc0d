package grbl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mastercactapus/gcsim/coord"
)

// statusReport is a parsed `<Idle|MPos:...|...>` line.
type statusReport struct {
	Status string

	// exactly one of MPos and WPos is reported, depending on $10
	MPos, WPos *coord.Point
	WCO        *coord.Point

	Feed, Spindle float64
}

func parseCoords(data string) (p coord.Point, err error) {
	parts := strings.Split(data, ",")
	if len(parts) < 3 || len(parts) > 5 {
		return p, errors.New("invalid number of elements")
	}
	for i, s := range parts {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return p, err
		}
		p = p.With(coord.Axes[i], v)
	}
	return p, nil
}

func isStatusReport(data string) bool {
	return strings.HasPrefix(data, "<") && strings.HasSuffix(data, ">")
}

func parseStatus(data string) (*statusReport, error) {
	data = strings.TrimSpace(data)
	if !isStatusReport(data) {
		return nil, fmt.Errorf("not a status report: %q", data)
	}
	data = strings.TrimSuffix(strings.TrimPrefix(data, "<"), ">")
	parts := strings.Split(data, "|")

	var stat statusReport
	// substates like Hold:0 are not tracked
	stat.Status, _, _ = strings.Cut(parts[0], ":")
	for _, s := range parts[1:] {
		key, val, _ := strings.Cut(s, ":")
		switch key {
		case "MPos", "WPos", "WCO":
			p, err := parseCoords(val)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", key, err)
			}
			switch key {
			case "MPos":
				stat.MPos = &p
			case "WPos":
				stat.WPos = &p
			default:
				stat.WCO = &p
			}
		case "FS", "F":
			fs := strings.Split(val, ",")
			stat.Feed, _ = strconv.ParseFloat(fs[0], 64)
			if len(fs) > 1 {
				stat.Spindle, _ = strconv.ParseFloat(fs[1], 64)
			}
		}
	}
	return &stat, nil
}
