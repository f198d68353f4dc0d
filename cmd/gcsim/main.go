package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mastercactapus/gcsim/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type cli struct {
	envFile  string
	logLevel string

	cfg *config.Config
	log *logrus.Logger
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "gcsim",
		Short:         "Parse, simulate and play back G-code programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if c.envFile != "" {
				files = append(files, c.envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = c.logLevel
			}
			c.cfg = cfg
			c.log = config.NewLogger(cfg.LogLevel, stderr)
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&c.envFile, "env", "", "Path to a .env file (default .env)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error, off)")

	rootCmd.AddCommand(
		c.newCheckCmd(),
		c.newRunCmd(),
		c.newSamplesCmd(),
		c.newServeCmd(),
	)

	return rootCmd
}

// readProgram reads a program from a file, or stdin for "-".
func readProgram(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("error opening file %s: %w", name, err)
	}
	return string(data), nil
}
