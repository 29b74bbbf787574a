package graph

import "fmt"

// levelize builds a data-edge adjacency map and per-node in-degree count,
// then runs Kahn's algorithm to partition nodes into topological levels:
// level i+1 depends only on nodes in levels <= i. Every node is assigned to
// exactly one level, and for every data edge m -> n, level(m) < level(n).
//
// Returns an error if the data-edge sub-graph contains a cycle: Kahn's
// algorithm terminates having consumed fewer nodes than exist.
func levelize(nodes []NodeEntry, edges []EdgeSpec) ([][]string, error) {
	adj := map[string][]string{}
	indeg := map[string]int{}
	for _, n := range nodes {
		id := n.ID()
		indeg[id] = 0
	}
	for _, e := range edges {
		if e.Kind != "" && e.Kind != EdgeData {
			continue
		}
		if _, ok := indeg[e.TargetNode]; !ok {
			continue
		}
		if _, ok := indeg[e.SourceNode]; !ok {
			continue
		}
		adj[e.SourceNode] = append(adj[e.SourceNode], e.TargetNode)
		indeg[e.TargetNode]++
	}

	remaining := map[string]int{}
	for id, d := range indeg {
		remaining[id] = d
	}

	var levels [][]string
	consumed := 0
	for {
		var level []string
		for _, n := range nodes {
			id := n.ID()
			if _, seen := remaining[id]; !seen {
				continue
			}
			if remaining[id] == 0 {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			break
		}
		for _, id := range level {
			delete(remaining, id)
		}
		for _, id := range level {
			for _, next := range adj[id] {
				if _, ok := remaining[next]; ok {
					remaining[next]--
				}
			}
		}
		levels = append(levels, level)
		consumed += len(level)
	}

	if consumed != len(indeg) {
		return nil, fmt.Errorf("data-edge sub-graph contains a cycle: %d of %d nodes are unreachable by topological order", len(indeg)-consumed, len(indeg))
	}
	return levels, nil
}

// Levelize is the exported form of levelize, used by callers (e.g. the
// compiler or tooling) that want the level partition without running the
// spec.
func Levelize(spec *WorkflowSpec) ([][]string, error) {
	return levelize(spec.Nodes, spec.Edges)
}
