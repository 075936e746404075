package graph

import "github.com/agentmem/amem/format"

// Edge is a directed, weighted relation between two existing nodes (spec §3).
type Edge struct {
	Source uint32
	Target uint32
	Kind   format.EdgeKind
	Weight float32
}

// AdjRef is one entry of a per-node adjacency list: the node at the other
// end of the edge, plus the index of the edge itself in Graph.Edges().
type AdjRef struct {
	Node uint32
	Edge uint32
}
