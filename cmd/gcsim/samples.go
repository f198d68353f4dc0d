package main

import (
	"fmt"

	"github.com/mastercactapus/gcsim/program"
	"github.com/spf13/cobra"
)

func (c *cli) newSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples [NAME]",
		Short: "List the built-in programs, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				_, err := fmt.Fprint(cmd.OutOrStdout(), program.Sample(args[0]))
				return err
			}
			for _, name := range program.SampleNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
