// Package query implements the read-only retrieval, graph-algorithm, and
// cognitive operations of the engine (spec §4.6-§4.8): traversal, hybrid
// BM25/vector search, supersession resolution, centrality, shortest paths,
// counterfactual revision, reasoning-gap detection, analogical matching,
// consolidation, and belief drift.
//
// Every function here takes a *graph.Graph and returns a value, never
// mutating the graph (consolidation's "apply" step is the sole exception,
// and it is a distinct operation from the report it acts on). Index
// structures (term index, cluster map) are built fresh from the graph on
// each call that needs them: spec §5 describes them as artifacts cached by
// a mmap-backed reader over an immutable file, but this package also serves
// the mutable in-memory graph mid-session, where a cached index would go
// stale on every AddNode. Rebuilding is O(n) and queries are documented as
// CPU-bound, not sub-microsecond, once off the mapped file.
package query

import (
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
)

// TraverseResult is the outcome of a breadth-first traversal.
type TraverseResult struct {
	Visited  []uint32
	Edges    []graph.Edge
	MaxDepth int
}

// Scored pairs a node id with a ranking score, used by similarity, text,
// and hybrid search results.
type Scored struct {
	NodeID uint32
	Score  float64
}

// Filters narrows similar()'s candidate set before scoring.
type Filters struct {
	Kinds    []format.EventKind
	Sessions []uint32
}

func (f Filters) allows(n *graph.Node) bool {
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, n.Kind) {
		return false
	}
	if len(f.Sessions) > 0 && !containsSession(f.Sessions, n.Session) {
		return false
	}
	return true
}

func containsKind(ks []format.EventKind, k format.EventKind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

func containsSession(ss []uint32, s uint32) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// ResolveResult is resolve(id)'s outcome: the terminal node of a supersedes
// chain and the chain itself, source node first.
type ResolveResult struct {
	Terminal uint32
	Chain    []uint32
}

// ImpactResult is impact(id, max_depth)'s outcome: nodes reachable via
// reverse traversal, partitioned by event kind.
type ImpactResult struct {
	ByKind map[format.EventKind][]uint32
}
