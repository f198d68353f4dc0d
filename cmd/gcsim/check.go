package main

import (
	"errors"
	"fmt"

	"github.com/mastercactapus/gcsim/gcode"
	"github.com/mastercactapus/gcsim/vm"
	"github.com/spf13/cobra"
)

var errInvalidProgram = errors.New("program has errors")

func (c *cli) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Report parse errors, runtime errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readProgram(cmd, args[0])
			if err != nil {
				return err
			}
			return c.check(cmd, text)
		},
	}
}

func (c *cli) check(cmd *cobra.Command, text string) error {
	out := cmd.OutOrStdout()

	res := gcode.Parse(text)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "error: line %d: %s\n", e.Line, e.Message)
	}
	if !res.Success() {
		return errInvalidProgram
	}

	for _, w := range res.Commands.Validate() {
		fmt.Fprintf(out, "%s: line %d: %s\n", w.Severity, w.Line, w.Message)
	}

	_, errs := vm.New(vm.WithLogger(c.log)).Execute(res.Commands)
	for _, e := range errs {
		fmt.Fprintf(out, "error: %s\n", e)
	}

	s := res.Commands.Statistics()
	fmt.Fprintf(out, "%d commands: %d rapid, %d linear, %d arc, %d tool changes, %d spindle, %d modal\n",
		s.TotalLines, s.RapidMoves, s.LinearMoves, s.ArcMoves, s.ToolChanges, s.SpindleCommands, s.ModalCommands)

	if len(errs) > 0 {
		return errInvalidProgram
	}
	return nil
}
