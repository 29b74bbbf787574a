package main

import (
	"fmt"

	"github.com/dshills/workflow-engine/graph/compiler"
	"github.com/spf13/cobra"
)

func newCompileCmd(root *rootFlags) *cobra.Command {
	var taskType string
	var slots map[string]string
	var outPath string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a built-in template into a WorkflowSpec file",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := compiler.Compile(compiler.TaskType(taskType), compiler.Slots(slots))
			if err != nil {
				return err
			}
			if outPath == "" {
				return printJSON(cmd.OutOrStdout(), spec)
			}
			if err := saveSpecFile(outPath, spec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", outPath, spec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&taskType, "task-type", "", "template id: rag, summarize, multi_agent_review, data_analysis, report_generation, translation, code_review, qa_extraction, sentiment_analysis, knowledge_base_build")
	cmd.Flags().StringToStringVar(&slots, "slot", nil, "slot=value pairs filled into the template, e.g. --slot data_source=report.pdf")
	cmd.Flags().StringVar(&outPath, "out", "", "write the compiled spec here (.yaml or .json); prints to stdout if omitted")
	cmd.MarkFlagRequired("task-type") //nolint:errcheck

	return cmd
}
