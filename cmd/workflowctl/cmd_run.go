package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/host"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunCmd(root *rootFlags) *cobra.Command {
	var specPath string
	var failFast bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a WorkflowSpec to completion and print its ExecutionRecord",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpecFile(specPath)
			if err != nil {
				return err
			}

			log := newLogger(root.logLevel)
			a, err := newApp(log, root.dataDir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			started, hostErr := a.host.StartRun(ctx, host.StartRunRequest{Spec: spec, FailFast: &failFast})
			if hostErr != nil {
				return hostErr
			}
			log.Info().Str("execution_id", started.ExecutionID.String()).Msg("run started")

			record, hostErr := awaitExecution(a.host, started.ExecutionID)
			if hostErr != nil {
				return hostErr
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "path to a WorkflowSpec file (.yaml or .json)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", true, "stop scheduling further levels after the first node failure")
	cmd.MarkFlagRequired("spec") //nolint:errcheck

	return cmd
}

// awaitExecution polls GetExecution until the run reaches a terminal
// status. The host IPC surface is request/response only, so polling is
// what a real host-side caller would do too.
func awaitExecution(h *host.Host, executionID uuid.UUID) (graph.ExecutionRecord, *host.Error) {
	for {
		record, hostErr := h.GetExecution(host.GetExecutionRequest{ExecutionID: executionID})
		if hostErr != nil {
			return graph.ExecutionRecord{}, hostErr
		}
		if record.Status != graph.ExecutionRunning {
			return record, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func printJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
