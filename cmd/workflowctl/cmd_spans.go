package main

import (
	"github.com/dshills/workflow-engine/graph/host"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSpansCmd(root *rootFlags) *cobra.Command {
	var executionIDStr string

	cmd := &cobra.Command{
		Use:   "spans",
		Short: "Print every recorded span for a prior execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			executionID, err := uuid.Parse(executionIDStr)
			if err != nil {
				return err
			}

			log := newLogger(root.logLevel)
			a, err := newApp(log, root.dataDir)
			if err != nil {
				return err
			}

			resp, hostErr := a.host.GetSpans(cmd.Context(), host.GetSpansRequest{ExecutionID: executionID})
			if hostErr != nil {
				return hostErr
			}
			return printJSON(cmd.OutOrStdout(), resp.Spans)
		},
	}
	cmd.Flags().StringVar(&executionIDStr, "execution-id", "", "execution id to query spans for")
	cmd.MarkFlagRequired("execution-id") //nolint:errcheck

	return cmd
}
