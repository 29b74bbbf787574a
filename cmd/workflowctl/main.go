// Command workflowctl is the operator entry point for the workflow engine:
// validate a spec, run it to completion, inspect recorded spans, or compile
// one of the built-in templates into a WorkflowSpec file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // adapter credentials only; absence is not fatal.

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "workflowctl:", err)
		os.Exit(1)
	}
}
