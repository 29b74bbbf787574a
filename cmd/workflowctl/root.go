package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	dataDir  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "workflowctl",
		Short:         "Operator CLI for the node-graph workflow engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "./workflowctl-data", "directory for the trace store and saved specs")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "zerolog level: debug, info, warn, error")

	cmd.AddCommand(
		newRunCmd(flags),
		newValidateCmd(flags),
		newSpansCmd(flags),
		newCompileCmd(flags),
	)
	return cmd
}

func newLogger(levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
