package graph

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every structural or semantic issue found while
// validating a WorkflowSpec. Validation never partially accepts a spec: all
// issues are collected before returning.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow validation failed with %d issue(s): %s", len(e.Issues), strings.Join(e.Issues, "; "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

func (e *ValidationError) ok() bool {
	return len(e.Issues) == 0
}

// MaxIterationsCeiling is the configurable absolute ceiling on a loop's
// MaxIterations, enforced independently of the declared value.
var MaxIterationsCeiling = 100000

// Validate applies every rule from §4.1 to spec and returns a
// *ValidationError enumerating every issue, or nil if the spec is valid.
func Validate(spec *WorkflowSpec) error {
	verr := &ValidationError{}

	ids := map[string]bool{}
	collectNodeIDs(spec.Nodes, ids, verr)

	validateEdges(spec.Edges, ids, verr, "")
	validateNodes(spec.Nodes, spec.Edges, verr)

	if err := validateAcyclic(spec.Nodes, spec.Edges); err != nil {
		verr.add("%s", err.Error())
	}

	if !verr.ok() {
		return verr
	}
	return nil
}

func collectNodeIDs(nodes []NodeEntry, ids map[string]bool, verr *ValidationError) {
	for _, n := range nodes {
		if err := n.validateShape(); err != nil {
			verr.add("node: %s", err.Error())
			continue
		}
		id := n.ID()
		if id == "" {
			verr.add("node of kind %s has an empty id", n.Kind)
			continue
		}
		if ids[id] {
			verr.add("duplicate node id %q", id)
			continue
		}
		ids[id] = true
	}
}

func validateEdges(edges []EdgeSpec, ids map[string]bool, verr *ValidationError, scope string) {
	for _, e := range edges {
		if !ids[e.SourceNode] {
			verr.add("%sedge %s: source node %q does not exist", scope, e.ID, e.SourceNode)
		}
		if !ids[e.TargetNode] {
			verr.add("%sedge %s: target node %q does not exist", scope, e.ID, e.TargetNode)
		}
	}
}

func validateNodes(nodes []NodeEntry, edges []EdgeSpec, verr *ValidationError) {
	incoming := incomingPortsByNode(edges)

	for _, n := range nodes {
		switch n.Kind {
		case NodePrimitive:
			validatePrimitive(n.Primitive, incoming[n.Primitive.ID], verr)
		case NodeComposite:
			validateComposite(n.Composite, verr)
		case NodeConditional:
			validateSubgraphSet(subgraphsOf(n.Conditional), verr)
		case NodeLoop:
			validateLoop(n.Loop, verr)
		}
	}
}

// incomingPortsByNode maps a node id to the set of target ports fed by a
// data edge.
func incomingPortsByNode(edges []EdgeSpec) map[string]map[string]bool {
	out := map[string]map[string]bool{}
	for _, e := range edges {
		if e.Kind != "" && e.Kind != EdgeData {
			continue
		}
		if out[e.TargetNode] == nil {
			out[e.TargetNode] = map[string]bool{}
		}
		out[e.TargetNode][e.TargetPort] = true
	}
	return out
}

func validatePrimitive(p *PrimitiveNode, fedPorts map[string]bool, verr *ValidationError) {
	if p.Disabled {
		return
	}
	if strings.Count(p.ToolRef, "/") != 1 || !strings.Contains(p.ToolRef, "@") {
		verr.add("primitive %s: tool_ref %q must have shape \"pack/tool@version\"", p.ID, p.ToolRef)
	}
	// Required-port satisfaction is only checkable against a known
	// ToolInterface; the registry-aware variant lives in ValidateAgainstRegistry.
	_ = fedPorts
}

func validateComposite(c *CompositeNode, verr *ValidationError) {
	innerIDs := map[string]bool{}
	collectNodeIDs(c.Body.Nodes, innerIDs, &ValidationError{})
	for _, n := range c.Body.Nodes {
		innerIDs[n.ID()] = true
	}
	for _, m := range append(append([]PortMapping{}, c.InMap...), c.OutMap...) {
		if !innerIDs[m.InternalNode] {
			verr.add("composite %s: port mapping references unknown internal node %q", c.ID, m.InternalNode)
		}
	}
	validateSubgraph(c.Body, verr)
}

func validateLoop(l *LoopNode, verr *ValidationError) {
	if l.MaxIterations <= 0 {
		verr.add("loop %s: max_iterations must be non-zero", l.ID)
	}
	if l.MaxIterations > MaxIterationsCeiling {
		verr.add("loop %s: max_iterations %d exceeds ceiling %d", l.ID, l.MaxIterations, MaxIterationsCeiling)
	}
	validateSubgraph(l.Body, verr)
}

func subgraphsOf(c *ConditionalNode) []SubgraphSpec {
	out := make([]SubgraphSpec, 0, len(c.Branches)+1)
	for _, b := range c.Branches {
		out = append(out, b.Body)
	}
	if c.Default != nil {
		out = append(out, *c.Default)
	}
	return out
}

func validateSubgraphSet(subs []SubgraphSpec, verr *ValidationError) {
	for _, s := range subs {
		validateSubgraph(s, verr)
	}
}

func validateSubgraph(s SubgraphSpec, verr *ValidationError) {
	ids := map[string]bool{}
	collectNodeIDs(s.Nodes, ids, verr)
	validateEdges(s.Edges, ids, verr, "sub-graph ")
	validateNodes(s.Nodes, s.Edges, verr)
	if err := validateAcyclic(s.Nodes, s.Edges); err != nil {
		verr.add("%s", err.Error())
	}
}

// validateAcyclic detects a cycle in the data-edge sub-graph by running
// Kahn's algorithm and checking that it consumes every data-reachable node.
func validateAcyclic(nodes []NodeEntry, edges []EdgeSpec) error {
	_, err := levelize(nodes, edges)
	return err
}
