package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/dshills/workflow-engine/graph/tool"
	"golang.org/x/time/rate"
)

// ProcessRuntime dispatches tool_refs whose RuntimeSpec.Kind is Process: the
// configured command is spawned with the serialized ToolInput on stdin, and
// stdout is expected to hold the serialized ToolOutput. A non-zero exit
// carries stderr as the failure message.
type ProcessRuntime struct {
	limiter *rate.Limiter
}

// NewProcessRuntime returns a ProcessRuntime optionally rate-limited to
// limit dispatches per second with the given burst, so a misbehaving spec
// cannot spawn unbounded subprocesses. A nil limiter (limit <= 0) disables
// limiting.
func NewProcessRuntime(limit rate.Limit, burst int) *ProcessRuntime {
	if limit <= 0 {
		return &ProcessRuntime{}
	}
	return &ProcessRuntime{limiter: rate.NewLimiter(limit, burst)}
}

func (r *ProcessRuntime) Dispatch(ctx context.Context, iface tool.Interface, input ToolInput) (ToolOutput, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return ToolOutput{}, &Error{Code: "RateLimited", Message: err.Error(), Cause: err}
		}
	}

	payload, err := marshalInput(input)
	if err != nil {
		return ToolOutput{}, &Error{Code: "SerializationFailure", Message: err.Error(), Cause: err}
	}

	cmd := exec.CommandContext(ctx, iface.Runtime.Command)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ToolOutput{}, &Error{Code: "ProcessFailure", Message: stderr.String(), Cause: err}
	}

	var out ToolOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return ToolOutput{}, &Error{Code: "MalformedOutput", Message: err.Error(), Cause: err}
	}
	return out, nil
}
