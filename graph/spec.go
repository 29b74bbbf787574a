package graph

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the fixed WorkflowSpec schema version for this release.
const SchemaVersion = "1.0"

// Variable declares one named, typed, optionally-defaulted input injectable
// at run start.
type Variable struct {
	Name     string          `json:"name" yaml:"name" validate:"required"`
	Type     PortType        `json:"type" yaml:"type" validate:"required"`
	Required bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Default  json.RawMessage `json:"default,omitempty" yaml:"default,omitempty"`
}

// RequiredPack names one external tool bundle a graph depends on, with a
// semver-range constraint resolved by the registry.
type RequiredPack struct {
	PackID       string `json:"pack_id" yaml:"pack_id"`
	VersionRange string `json:"version_range" yaml:"version_range"`
}

// Metadata holds descriptive, non-semantic information about a WorkflowSpec.
type Metadata struct {
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Author      string    `json:"author,omitempty" yaml:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// WorkflowSpec is the top-level, serializable workflow graph. It is a value
// object: created by callers or the compiler, passed by copy into the
// Runner, never mutated in place during execution.
type WorkflowSpec struct {
	ID            uuid.UUID      `json:"id" yaml:"id"`
	SchemaVersion string         `json:"schema_version" yaml:"schema_version" validate:"required,schema_version"`
	Metadata      Metadata       `json:"metadata" yaml:"metadata" validate:"required"`
	Variables     []Variable     `json:"variables,omitempty" yaml:"variables,omitempty" validate:"dive"`
	Nodes         []NodeEntry    `json:"nodes" yaml:"nodes"`
	Edges         []EdgeSpec     `json:"edges" yaml:"edges"`
	RequiredPacks []RequiredPack `json:"required_packs,omitempty" yaml:"required_packs,omitempty"`
}

// NewWorkflowSpec creates an empty, freshly-identified WorkflowSpec.
func NewWorkflowSpec(name string) WorkflowSpec {
	now := time.Now().UTC()
	return WorkflowSpec{
		ID:            uuid.New(),
		SchemaVersion: SchemaVersion,
		Metadata: Metadata{
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Normalize walks the spec and fills in defaults left implicit by a
// human-authored file: empty edge kinds become EdgeData, empty edge IDs get
// a fresh UUID. Called before validation and before execution.
func (w *WorkflowSpec) Normalize() {
	for i := range w.Edges {
		w.Edges[i].normalize()
	}
	for i := range w.Nodes {
		normalizeSubgraphEdges(&w.Nodes[i])
	}
	if w.SchemaVersion == "" {
		w.SchemaVersion = SchemaVersion
	}
}

func normalizeSubgraphEdges(n *NodeEntry) {
	switch n.Kind {
	case NodeComposite:
		if n.Composite != nil {
			normalizeSubgraph(&n.Composite.Body)
		}
	case NodeConditional:
		if n.Conditional != nil {
			for i := range n.Conditional.Branches {
				normalizeSubgraph(&n.Conditional.Branches[i].Body)
			}
			if n.Conditional.Default != nil {
				normalizeSubgraph(n.Conditional.Default)
			}
		}
	case NodeLoop:
		if n.Loop != nil {
			normalizeSubgraph(&n.Loop.Body)
		}
	}
}

func normalizeSubgraph(s *SubgraphSpec) {
	for i := range s.Edges {
		s.Edges[i].normalize()
	}
	for i := range s.Nodes {
		normalizeSubgraphEdges(&s.Nodes[i])
	}
}

// NodeByID returns the top-level node with the given id, or false.
func (w *WorkflowSpec) NodeByID(id string) (NodeEntry, bool) {
	for _, n := range w.Nodes {
		if n.ID() == id {
			return n, true
		}
	}
	return NodeEntry{}, false
}
