package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine/sim"
	"github.com/mastercactapus/gcsim/meshlevel"
	"github.com/mastercactapus/gcsim/program"
	"github.com/spf13/cobra"
)

type runOptions struct {
	sample      string
	mesh        string
	granularity float64
	json        bool
}

func (c *cli) newRunCmd() *cobra.Command {
	var opt runOptions
	cmd := &cobra.Command{
		Use:   "run [FILE]",
		Short: "Play a program on the simulated machine",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case len(args) == 1:
				var err error
				text, err = readProgram(cmd, args[0])
				if err != nil {
					return err
				}
			case opt.sample != "":
				text = program.Sample(opt.sample)
			default:
				return errors.New("either FILE or --sample is required")
			}
			return c.run(cmd, text, opt)
		},
	}

	cmd.Flags().StringVar(&opt.sample, "sample", "", "Run a built-in sample program")
	cmd.Flags().StringVar(&opt.mesh, "mesh", "", "JSON file of probe points to level the toolpath with")
	cmd.Flags().Float64Var(&opt.granularity, "granularity", 1, "Maximum leveled move length in mm")
	cmd.Flags().BoolVar(&opt.json, "json", false, "Print the toolpath as JSON")

	return cmd
}

func (c *cli) simProfile() (sim.Profile, error) {
	if c.cfg.Profile == "" {
		return sim.DefaultProfile(), nil
	}
	return sim.LoadProfile(c.cfg.Profile)
}

func loadLeveler(name string, granularity float64) (*meshlevel.Leveler, error) {
	if !(granularity >= coord.MinResolution) {
		return nil, fmt.Errorf("granularity must be at least %g mm", coord.MinResolution)
	}
	fd, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	points, err := meshlevel.ReadPoints(fd)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errors.New("mesh has no points")
	}
	mesh, err := meshlevel.NewMesh(meshlevel.OffsetFrom(points[0].Z, points))
	if err != nil {
		return nil, err
	}
	return &meshlevel.Leveler{Offsetter: mesh, Granularity: granularity}, nil
}

func (c *cli) run(cmd *cobra.Command, text string, opt runOptions) error {
	profile, err := c.simProfile()
	if err != nil {
		return err
	}
	m := sim.New(profile, c.log)

	opts := []program.Option{
		program.WithMachine(m),
		program.WithLogger(c.log),
		program.WithRapidRate(profile.MaxFeedrate),
	}
	if opt.mesh != "" {
		l, err := loadLeveler(opt.mesh, opt.granularity)
		if err != nil {
			return fmt.Errorf("load mesh: %w", err)
		}
		opts = append(opts, program.WithLeveler(l))
	}
	seq := program.New(opts...)

	res := seq.Load(text)
	if !res.Success {
		for _, e := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: line %d: %s\n", e.Line, e.Message)
		}
		return errInvalidProgram
	}

	if opt.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(seq.Toolpath())
	}

	seq.Start()
	for seq.StepForward() {
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "segments: %d\n", res.SegmentCount)
	fmt.Fprintf(out, "warnings: %d\n", len(res.Warnings))
	fmt.Fprintf(out, "runtime errors: %d\n", len(res.RuntimeErrors))
	fmt.Fprintf(out, "estimated time: %s\n", seq.Duration().Round(time.Millisecond))
	p := m.CurrentPosition()
	fmt.Fprintf(out, "final position: X%g Y%g Z%g A%g B%g\n", p.X, p.Y, p.Z, p.A, p.B)
	return nil
}
