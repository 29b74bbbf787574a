package tool

import (
	"fmt"

	"github.com/dshills/workflow-engine/graph"
)

// ValidateAgainstRegistry extends graph.Validate with the registry-aware
// half of §4.1's required-input-port rule: every primitive node's tool_ref
// must resolve, and every required input port on the resolved Interface
// must be satisfied by an incoming data edge, a config key, or a declared
// default.
func ValidateAgainstRegistry(spec *graph.WorkflowSpec, reg *Registry) error {
	verr := &graph.ValidationError{}
	fedPorts := incomingPortsByNode(spec.Edges)
	checkNodes(spec.Nodes, fedPorts, reg, verr)
	if len(verr.Issues) == 0 {
		return nil
	}
	return verr
}

func incomingPortsByNode(edges []graph.EdgeSpec) map[string]map[string]bool {
	out := map[string]map[string]bool{}
	for _, e := range edges {
		if e.Kind != "" && e.Kind != graph.EdgeData {
			continue
		}
		if out[e.TargetNode] == nil {
			out[e.TargetNode] = map[string]bool{}
		}
		out[e.TargetNode][e.TargetPort] = true
	}
	return out
}

func checkNodes(nodes []graph.NodeEntry, fedPorts map[string]map[string]bool, reg *Registry, verr *graph.ValidationError) {
	for _, n := range nodes {
		switch n.Kind {
		case graph.NodePrimitive:
			checkPrimitive(n.Primitive, fedPorts[n.Primitive.ID], reg, verr)
		case graph.NodeComposite:
			checkNodes(n.Composite.Body.Nodes, incomingPortsByNode(n.Composite.Body.Edges), reg, verr)
		case graph.NodeConditional:
			for _, b := range n.Conditional.Branches {
				checkNodes(b.Body.Nodes, incomingPortsByNode(b.Body.Edges), reg, verr)
			}
			if n.Conditional.Default != nil {
				checkNodes(n.Conditional.Default.Nodes, incomingPortsByNode(n.Conditional.Default.Edges), reg, verr)
			}
		case graph.NodeLoop:
			checkNodes(n.Loop.Body.Nodes, incomingPortsByNode(n.Loop.Body.Edges), reg, verr)
		}
	}
}

func checkPrimitive(p *graph.PrimitiveNode, fed map[string]bool, reg *Registry, verr *graph.ValidationError) {
	if p.Disabled {
		return
	}
	iface, ok := reg.Resolve(p.ToolRef)
	if !ok {
		verr.Issues = append(verr.Issues, fmt.Sprintf("primitive %s: tool_ref %q is not registered", p.ID, p.ToolRef))
		return
	}
	for _, port := range iface.Inputs {
		if !port.Required {
			continue
		}
		if fed[port.Name] {
			continue
		}
		if _, hasConfig := p.Config[port.Name]; hasConfig {
			continue
		}
		if port.Default != nil {
			continue
		}
		verr.Issues = append(verr.Issues, fmt.Sprintf(
			"primitive %s: required input port %q of %s is not fed by an edge, config key, or default",
			p.ID, port.Name, p.ToolRef))
	}
}
