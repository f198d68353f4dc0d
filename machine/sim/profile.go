package sim

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mastercactapus/gcsim/coord"
	"gopkg.in/yaml.v3"
)

// Profile describes the machine being simulated. Linear travel is the
// full stroke of the axis, centered on zero.
type Profile struct {
	Name string `yaml:"name"`

	XTravel float64 `yaml:"xTravel"`
	YTravel float64 `yaml:"yTravel"`
	ZTravel float64 `yaml:"zTravel"`
	AMin    float64 `yaml:"aMin"`
	AMax    float64 `yaml:"aMax"`

	MaxSpindleSpeed float64 `yaml:"maxSpindleSpeed"`
	MaxFeedrate     float64 `yaml:"maxFeedrate"`

	// Home is the position after power-on and Reset.
	Home coord.Point `yaml:"home"`
}

// DefaultProfile is a five-axis trunnion mill.
func DefaultProfile() Profile {
	return Profile{
		Name:            "umc",
		XTravel:         1200,
		YTravel:         800,
		ZTravel:         800,
		AMin:            -110,
		AMax:            110,
		MaxSpindleSpeed: 12000,
		MaxFeedrate:     25400,
		Home:            coord.Point{Z: 100},
	}
}

var errProfileTravel = errors.New("travel must be positive")

func (p Profile) validate() error {
	if p.XTravel <= 0 || p.YTravel <= 0 || p.ZTravel <= 0 {
		return errProfileTravel
	}
	if p.AMin > p.AMax {
		return fmt.Errorf("a axis range [%g, %g] is empty", p.AMin, p.AMax)
	}
	if p.MaxSpindleSpeed < 0 || p.MaxFeedrate <= 0 {
		return errors.New("spindle speed and feedrate limits must be positive")
	}
	return nil
}

// ReadProfile decodes a YAML profile. Fields that are not set keep their
// DefaultProfile value.
func ReadProfile(r io.Reader) (Profile, error) {
	p := DefaultProfile()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return p, nil
}

func LoadProfile(path string) (Profile, error) {
	fd, err := os.Open(path)
	if err != nil {
		return Profile{}, err
	}
	defer fd.Close()
	return ReadProfile(fd)
}
