// Package graph provides the DAG workflow execution engine: the graph DSL,
// validation, levelized scheduling, retry policy, and the partial
// re-execution dirty-set computation.
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PortType is the closed set of semantic types a port may declare.
type PortType string

// The full set of supported port types.
const (
	PortString  PortType = "string"
	PortNumber  PortType = "number"
	PortBoolean PortType = "boolean"
	PortJSON    PortType = "json"
	PortArray   PortType = "array"
	PortBinary  PortType = "binary"
	PortAny     PortType = "any"
)

// PortSpec describes one named input or output port on a tool or sub-graph
// boundary. Ports are referenced by name only; callers must not rely on
// declaration order.
type PortSpec struct {
	Name        string          `json:"name" yaml:"name"`
	Type        PortType        `json:"type" yaml:"type"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Default     json.RawMessage `json:"default,omitempty" yaml:"default,omitempty"`
}

// EdgeKind discriminates how an edge participates in scheduling.
type EdgeKind string

const (
	// EdgeData edges carry dataflow and participate in topological ordering.
	EdgeData EdgeKind = "data"
	// EdgeControl edges are reserved for future ordering hints; ignored by
	// the level scheduler today (spec §9 open question b).
	EdgeControl EdgeKind = "control"
	// EdgeError edges are reserved for future error-routing; ignored by the
	// level scheduler today.
	EdgeError EdgeKind = "error"
)

// EdgeSpec connects one node's output port to another node's input port.
type EdgeSpec struct {
	ID         string   `json:"id" yaml:"id"`
	SourceNode string   `json:"source_node" yaml:"source_node"`
	SourcePort string   `json:"source_port" yaml:"source_port"`
	TargetNode string   `json:"target_node" yaml:"target_node"`
	TargetPort string   `json:"target_port" yaml:"target_port"`
	Kind       EdgeKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Transform is an optional expression (see ApplyTransform) applied to the
	// source value before assignment to the target port.
	Transform string `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// normalize fills in defaults: an empty Kind becomes EdgeData, and an empty
// ID is assigned a fresh UUID. This is what lets a WorkflowSpec round-trip
// through a human-authored file that omits these fields.
func (e *EdgeSpec) normalize() {
	if e.Kind == "" {
		e.Kind = EdgeData
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
}

// NodeKind discriminates the NodeEntry tagged union.
type NodeKind string

const (
	NodePrimitive   NodeKind = "primitive"
	NodeComposite   NodeKind = "composite"
	NodeConditional NodeKind = "conditional"
	NodeLoop        NodeKind = "loop"
)

// CachePolicy controls whether the execution cache participates for one
// primitive node.
type CachePolicy struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	TTLSecs int  `json:"ttl_secs,omitempty" yaml:"ttl_secs,omitempty"`
}

// PrimitiveNode is a leaf graph node bound to one concrete tool invocation.
type PrimitiveNode struct {
	ID       string         `json:"id" yaml:"id"`
	ToolRef  string         `json:"tool_ref" yaml:"tool_ref"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Position *Position      `json:"position,omitempty" yaml:"position,omitempty"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Disabled bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Retry    *RetryPolicy   `json:"retry,omitempty" yaml:"retry,omitempty"`
	Cache    *CachePolicy   `json:"cache,omitempty" yaml:"cache,omitempty"`
}

// Position is a UI layout hint; it has no bearing on execution semantics.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// PortMapping binds one externally-declared port of a Composite node to an
// internal (node, port) pair inside its SubgraphSpec.
type PortMapping struct {
	ExternalPort string `json:"external_port" yaml:"external_port"`
	InternalNode string `json:"internal_node" yaml:"internal_node"`
	InternalPort string `json:"internal_port" yaml:"internal_port"`
}

// CompositeNode wraps a SubgraphSpec and exposes a declared external port
// set, so externally it behaves like one ordinary node.
type CompositeNode struct {
	ID      string        `json:"id" yaml:"id"`
	Body    SubgraphSpec  `json:"body" yaml:"body"`
	Inputs  []PortSpec    `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []PortSpec    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	InMap   []PortMapping `json:"input_mappings,omitempty" yaml:"input_mappings,omitempty"`
	OutMap  []PortMapping `json:"output_mappings,omitempty" yaml:"output_mappings,omitempty"`
	Label   string        `json:"label,omitempty" yaml:"label,omitempty"`
}

// ConditionalKind selects between the two supported branch-selection
// strategies.
type ConditionalKind string

const (
	CondIf     ConditionalKind = "if"
	CondSwitch ConditionalKind = "switch"
)

// Branch is one arm of a Conditional node. The branch whose literal Value
// equals the evaluated condition is selected.
type Branch struct {
	Label string          `json:"label" yaml:"label"`
	Value json.RawMessage `json:"value" yaml:"value"`
	Body  SubgraphSpec    `json:"body" yaml:"body"`
}

// ConditionalNode selects and runs exactly one branch (or the default, or
// neither) based on a condition expression evaluated against node input.
type ConditionalNode struct {
	ID        string          `json:"id" yaml:"id"`
	Kind      ConditionalKind `json:"kind" yaml:"kind"`
	Condition string          `json:"condition" yaml:"condition"`
	Branches  []Branch        `json:"branches" yaml:"branches"`
	Default   *SubgraphSpec   `json:"default,omitempty" yaml:"default,omitempty"`
	Label     string          `json:"label,omitempty" yaml:"label,omitempty"`
}

// LoopKind selects the loop's termination strategy.
type LoopKind string

const (
	LoopForEach LoopKind = "for_each"
	LoopWhile   LoopKind = "while"
	LoopRepeat  LoopKind = "repeat"
)

// LoopNode repeatedly executes a body SubgraphSpec, always bounded by
// MaxIterations regardless of Kind.
type LoopNode struct {
	ID            string       `json:"id" yaml:"id"`
	Kind          LoopKind     `json:"kind" yaml:"kind"`
	Body          SubgraphSpec `json:"body" yaml:"body"`
	MaxIterations int          `json:"max_iterations" yaml:"max_iterations"`
	Condition     string       `json:"condition,omitempty" yaml:"condition,omitempty"`
	Items         string       `json:"items,omitempty" yaml:"items,omitempty"`
	Label         string       `json:"label,omitempty" yaml:"label,omitempty"`
}

// NodeEntry is the polymorphic graph-node variant. Exactly one of the
// pointer fields is non-nil, selected by Kind. This is a tagged-union via a
// discriminant field rather than an interface hierarchy or downcasting, per
// the DESIGN NOTES on polymorphic NodeEntry: the scheduler switches on Kind
// and never type-asserts a Node interface.
type NodeEntry struct {
	Kind        NodeKind         `json:"kind" yaml:"kind"`
	Primitive   *PrimitiveNode   `json:"primitive,omitempty" yaml:"primitive,omitempty"`
	Composite   *CompositeNode   `json:"composite,omitempty" yaml:"composite,omitempty"`
	Conditional *ConditionalNode `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Loop        *LoopNode        `json:"loop,omitempty" yaml:"loop,omitempty"`
}

// ID returns the node identifier regardless of variant.
func (n NodeEntry) ID() string {
	switch n.Kind {
	case NodePrimitive:
		if n.Primitive != nil {
			return n.Primitive.ID
		}
	case NodeComposite:
		if n.Composite != nil {
			return n.Composite.ID
		}
	case NodeConditional:
		if n.Conditional != nil {
			return n.Conditional.ID
		}
	case NodeLoop:
		if n.Loop != nil {
			return n.Loop.ID
		}
	}
	return ""
}

// validateShape checks that exactly one variant payload is populated and
// consistent with Kind.
func (n NodeEntry) validateShape() error {
	count := 0
	if n.Primitive != nil {
		count++
	}
	if n.Composite != nil {
		count++
	}
	if n.Conditional != nil {
		count++
	}
	if n.Loop != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("node entry must carry exactly one variant payload, got %d", count)
	}
	switch n.Kind {
	case NodePrimitive:
		if n.Primitive == nil {
			return fmt.Errorf("kind=primitive but Primitive is nil")
		}
	case NodeComposite:
		if n.Composite == nil {
			return fmt.Errorf("kind=composite but Composite is nil")
		}
	case NodeConditional:
		if n.Conditional == nil {
			return fmt.Errorf("kind=conditional but Conditional is nil")
		}
	case NodeLoop:
		if n.Loop == nil {
			return fmt.Errorf("kind=loop but Loop is nil")
		}
	default:
		return fmt.Errorf("unknown node kind %q", n.Kind)
	}
	return nil
}

// SubgraphSpec is a nested {nodes, edges} pair used inside Composite,
// Conditional branch, and Loop body variants.
type SubgraphSpec struct {
	Nodes []NodeEntry `json:"nodes" yaml:"nodes"`
	Edges []EdgeSpec  `json:"edges" yaml:"edges"`
}
