// Package tool defines the ToolInterface contract every tool publishes at
// registration, and the registry that resolves a tool_ref to one.
package tool

import "github.com/dshills/workflow-engine/graph"

// SideEffectClass classifies the external I/O a tool performs.
type SideEffectClass string

const (
	SideEffectNone    SideEffectClass = "none"
	SideEffectRead    SideEffectClass = "read"
	SideEffectWrite   SideEffectClass = "write"
	SideEffectNetwork SideEffectClass = "network"
	SideEffectProcess SideEffectClass = "process"
)

// RuntimeKind discriminates the concrete invocation mechanism a tool uses.
type RuntimeKind string

const (
	RuntimeNative  RuntimeKind = "native"
	RuntimeProcess RuntimeKind = "process"
	RuntimePython  RuntimeKind = "python"
	RuntimeDocker  RuntimeKind = "docker"
	RuntimeWasm    RuntimeKind = "wasm"
	RuntimeMCP     RuntimeKind = "mcp"
)

// RuntimeSpec names the runtime a tool is invoked through and its
// runtime-specific parameters.
type RuntimeSpec struct {
	Kind     RuntimeKind `json:"kind" yaml:"kind"`
	Command  string      `json:"command,omitempty" yaml:"command,omitempty"`
	Script   string      `json:"script,omitempty" yaml:"script,omitempty"`
	Image    string      `json:"image,omitempty" yaml:"image,omitempty"`
	Module   string      `json:"module,omitempty" yaml:"module,omitempty"`
	ServerID string      `json:"server_id,omitempty" yaml:"server_id,omitempty"`
}

// CostHint informs schedulers and UIs of a tool's relative cost, grounded
// on the teacher's per-model pricing table (graph/cost.go) generalized
// beyond LLM token pricing.
type CostHint struct {
	TimeBucket      string  `json:"time_bucket,omitempty" yaml:"time_bucket,omitempty"`
	MonetaryBucket  string  `json:"monetary_bucket,omitempty" yaml:"monetary_bucket,omitempty"`
	ScalesWithInput bool    `json:"scales_with_input,omitempty" yaml:"scales_with_input,omitempty"`
	TokenEstimate   int     `json:"token_estimate,omitempty" yaml:"token_estimate,omitempty"`
	USDPer1MInput   float64 `json:"usd_per_1m_input,omitempty" yaml:"usd_per_1m_input,omitempty"`
	USDPer1MOutput  float64 `json:"usd_per_1m_output,omitempty" yaml:"usd_per_1m_output,omitempty"`
}

// ErrorCodeSpec declares one error code a tool may return and whether the
// scheduler's retry engine should treat it as retryable.
type ErrorCodeSpec struct {
	Code      string `json:"code" yaml:"code"`
	Retryable bool   `json:"retryable" yaml:"retryable"`
}

// ErrorModel is a tool's declared error taxonomy.
type ErrorModel struct {
	Codes       []ErrorCodeSpec    `json:"codes,omitempty" yaml:"codes,omitempty"`
	Idempotent  bool               `json:"idempotent" yaml:"idempotent"`
	DefaultRetry *graph.RetryPolicy `json:"default_retry,omitempty" yaml:"default_retry,omitempty"`
}

// Retryable reports whether a given error code is retryable per the
// declared error model. Unknown codes are treated as non-retryable.
func (m ErrorModel) Retryable(code string) bool {
	for _, c := range m.Codes {
		if c.Code == code {
			return c.Retryable
		}
	}
	return false
}

// Interface is the contract every tool publishes at registration time.
type Interface struct {
	ID           string           `json:"id" yaml:"id"`
	Version      string           `json:"version" yaml:"version"`
	DisplayName  string           `json:"display_name" yaml:"display_name"`
	Description  string           `json:"description,omitempty" yaml:"description,omitempty"`
	Capabilities []string         `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Inputs       []graph.PortSpec `json:"inputs" yaml:"inputs"`
	Outputs      []graph.PortSpec `json:"outputs" yaml:"outputs"`
	SideEffect   SideEffectClass  `json:"side_effect" yaml:"side_effect"`
	Permissions  []string         `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Cost         CostHint         `json:"cost,omitempty" yaml:"cost,omitempty"`
	ErrorModel   ErrorModel       `json:"error_model" yaml:"error_model"`
	Runtime      RuntimeSpec      `json:"runtime" yaml:"runtime"`
}

// FullRef returns the "pack/tool@version" reference string for this
// interface, given the owning pack id.
func (i Interface) FullRef(packID string) string {
	return packID + "/" + i.ID + "@" + i.Version
}

// RequiredPort returns the PortSpec for name among Inputs, or false.
func (i Interface) RequiredPort(name string) (graph.PortSpec, bool) {
	for _, p := range i.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return graph.PortSpec{}, false
}
