package main

import (
	"fmt"
	"strings"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/tool"
	"github.com/spf13/cobra"
)

func newValidateCmd(root *rootFlags) *cobra.Command {
	var specPath string
	var againstRegistry bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a WorkflowSpec file against the structural and semantic rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpecFile(specPath)
			if err != nil {
				return err
			}
			if err := graph.ValidateMetadata(&spec); err != nil {
				return fmt.Errorf("invalid: %w", err)
			}
			if err := graph.Validate(&spec); err != nil {
				return fmt.Errorf("invalid: %w", err)
			}
			if againstRegistry {
				a, err := newApp(newLogger(root.logLevel), root.dataDir)
				if err != nil {
					return err
				}
				if err := tool.ValidateAgainstRegistry(&spec, a.host.Registry); err != nil {
					return fmt.Errorf("invalid against registry: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d nodes, %d edges)\n", strings.TrimSpace(spec.Metadata.Name), len(spec.Nodes), len(spec.Edges))
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "path to a WorkflowSpec file (.yaml or .json)")
	cmd.Flags().BoolVar(&againstRegistry, "against-registry", false, "also check every tool_ref resolves and required ports are fed, using the default tool registry")
	cmd.MarkFlagRequired("spec") //nolint:errcheck

	return cmd
}
